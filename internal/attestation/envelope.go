package attestation

import (
	"fmt"

	"github.com/eigerco/computeplane/internal/crypto/ed25519"
	"github.com/eigerco/computeplane/internal/primitives"
)

// Envelope is the wire form of an attestation as submitted in calls.
type Envelope struct {
	Method   Method `json:"method"`
	IssuedAt uint64 `json:"issued_at,omitempty"`
	Payload  []byte `json:"payload,omitempty"`
}

// Open turns the envelope into a verifiable attestation.
func (e Envelope) Open(cfg Config) (Attestation, error) {
	switch e.Method {
	case OptOut:
		return optOut{}, nil
	case NonTEE:
		return nonTEE{issuedAt: e.IssuedAt, signature: e.Payload, cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, e.Method)
	}
}

func NewOptOut() Envelope {
	return Envelope{Method: OptOut}
}

// NewNonTEE signs payload with the worker key.
func NewNonTEE(key ed25519.PrivateKey, payload primitives.OnlinePayload, issuedAt uint64) (Envelope, error) {
	msg, err := payload.Encode()
	if err != nil {
		return Envelope{}, fmt.Errorf("encode online payload: %w", err)
	}
	return Envelope{
		Method:   NonTEE,
		IssuedAt: issuedAt,
		Payload:  ed25519.Sign(key, msg),
	}, nil
}
