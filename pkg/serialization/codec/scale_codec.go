package codec

import (
	"fmt"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

var _ Codec = (*SCALECodec)(nil)

// SCALECodec is the state codec. Pointers encode as options, fixed-size
// arrays inline, slices and strings with a compact length prefix. Maps are
// not supported since their order is not deterministic.
type SCALECodec struct{}

func (s *SCALECodec) Marshal(v interface{}) ([]byte, error) {
	b, err := scale.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("scale encode %T: %w", v, err)
	}
	return b, nil
}

func (s *SCALECodec) Unmarshal(data []byte, v interface{}) error {
	if err := scale.Unmarshal(data, v); err != nil {
		return fmt.Errorf("scale decode %T: %w", v, err)
	}
	return nil
}
