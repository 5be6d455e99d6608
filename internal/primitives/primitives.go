// Package primitives holds the identifiers and value types shared by every
// engine of the coordination layer.
package primitives

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/eigerco/computeplane/internal/crypto/ed25519"
	"github.com/eigerco/computeplane/pkg/serialization/codec"
)

const AccountIdSize = ed25519.PublicKeySize

// AccountId identifies an account by its ed25519 public key.
type AccountId [AccountIdSize]byte

type (
	Balance          uint64
	BlockNumber      uint64
	ImplId           uint32
	ImplSpecVersion  uint32
	ImplBuildVersion uint32
	PoolId           uint64
	JobPolicyId      uint32
	JobId            uint64
)

// ImplBuildMagicBytes fingerprint a build so workers cannot claim a version
// they do not run.
type ImplBuildMagicBytes [8]byte

func AccountIdFromPublicKey(pk ed25519.PublicKey) (AccountId, error) {
	var id AccountId
	if len(pk) != AccountIdSize {
		return id, fmt.Errorf("invalid public key length %d", len(pk))
	}
	copy(id[:], pk)
	return id, nil
}

func (a AccountId) PublicKey() ed25519.PublicKey {
	pk := make(ed25519.PublicKey, AccountIdSize)
	copy(pk, a[:])
	return pk
}

func (a AccountId) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short is a log friendly prefix of the id.
func (a AccountId) Short() string {
	return hex.EncodeToString(a[:4])
}

func (a AccountId) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountId) UnmarshalText(text []byte) error {
	return decodeFixedHex(text, a[:])
}

func (m ImplBuildMagicBytes) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(m[:])), nil
}

func (m *ImplBuildMagicBytes) UnmarshalText(text []byte) error {
	return decodeFixedHex(text, m[:])
}

func decodeFixedHex(text []byte, dst []byte) error {
	s := strings.TrimPrefix(string(text), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

// OnlinePayload is what a worker attests to when it goes online. Workers sign
// its SCALE encoding.
type OnlinePayload struct {
	ImplId              ImplId              `json:"impl_id"`
	ImplSpecVersion     ImplSpecVersion     `json:"impl_spec_version"`
	ImplBuildVersion    ImplBuildVersion    `json:"impl_build_version"`
	ImplBuildMagicBytes ImplBuildMagicBytes `json:"impl_build_magic_bytes"`
}

func (p OnlinePayload) Encode() ([]byte, error) {
	return codec.Default.Marshal(p)
}

// StoredData is a chain-stored blob backed by a reserved deposit on its
// depositor.
type StoredData struct {
	Depositor     AccountId
	ActualDeposit Balance
	Data          []byte
}

// Len returns the number of stored bytes.
func (d StoredData) Len() int {
	return len(d.Data)
}
