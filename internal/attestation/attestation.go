// Package attestation verifies the statements workers present when they go
// online. A verified attestation yields the payload bytes the worker signed
// and an optional expiry.
package attestation

import (
	"errors"
	"fmt"

	"github.com/eigerco/computeplane/internal/crypto/ed25519"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/safemath"
)

var (
	ErrExpired           = errors.New("attestation expired")
	ErrInvalid           = errors.New("attestation invalid")
	ErrUnsupportedMethod = errors.New("unsupported attestation method")
)

// Method is the kind of an attestation. A worker keeps the first method it
// attested with.
type Method uint8

const (
	OptOut Method = iota
	NonTEE
)

func (m Method) String() string {
	switch m {
	case OptOut:
		return "OptOut"
	case NonTEE:
		return "NonTEE"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

func (m Method) Valid() bool {
	return m == OptOut || m == NonTEE
}

func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	switch string(text) {
	case "OptOut":
		*m = OptOut
	case "NonTEE":
		*m = NonTEE
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, text)
	}
	return nil
}

// Verified is the result of a successful verification.
type Verified struct {
	// Payload is what the attestation carries, for NonTEE the signature over
	// the encoded online payload
	Payload []byte
	// ExpiresAt in unix seconds, nil if the attestation never expires
	ExpiresAt *uint64
}

type Attestation interface {
	Method() Method
	Verify(now uint64) (Verified, error)
}

// Config holds the verification knobs of the host.
type Config struct {
	NonTEEValidity      uint64
	ClockDriftTolerance uint64
}

type optOut struct{}

func (optOut) Method() Method { return OptOut }

func (optOut) Verify(uint64) (Verified, error) {
	return Verified{}, nil
}

// nonTEE is a self signed statement: the worker key signs the online payload
// and the statement is trusted for a fixed period after issue.
type nonTEE struct {
	issuedAt  uint64
	signature []byte
	cfg       Config
}

func (nonTEE) Method() Method { return NonTEE }

func (a nonTEE) Verify(now uint64) (Verified, error) {
	if a.issuedAt > safemath.SaturatingAdd64(now, a.cfg.ClockDriftTolerance) {
		return Verified{}, fmt.Errorf("%w: issued at %d, now %d", ErrInvalid, a.issuedAt, now)
	}
	if len(a.signature) != ed25519.SignatureSize {
		return Verified{}, fmt.Errorf("%w: signature length %d", ErrInvalid, len(a.signature))
	}
	expiresAt := safemath.SaturatingAdd64(a.issuedAt, a.cfg.NonTEEValidity)
	if now >= expiresAt {
		return Verified{}, fmt.Errorf("%w: at %d", ErrExpired, expiresAt)
	}
	return Verified{Payload: a.signature, ExpiresAt: &expiresAt}, nil
}

// CheckSignature reports whether the verified payload binds signer to the
// online payload. Methods without a payload carry no signature to check.
func CheckSignature(method Method, v Verified, signer primitives.AccountId, payload primitives.OnlinePayload) (bool, error) {
	if method == OptOut {
		return true, nil
	}
	msg, err := payload.Encode()
	if err != nil {
		return false, fmt.Errorf("encode online payload: %w", err)
	}
	return ed25519.Verify(signer.PublicKey(), msg, v.Payload), nil
}
