package codec

// Codec turns values into bytes and back. Implementations used for state must
// be deterministic: equal values always produce equal bytes.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// Default is the codec used for persisted state and signed payloads.
var Default Codec = &SCALECodec{}
