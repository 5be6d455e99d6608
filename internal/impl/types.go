// Package impl is the registry of implementations workers run. An impl is a
// logical program identity; its builds are concrete versions with a release
// status and optional magic bytes fingerprints.
package impl

import (
	"fmt"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/primitives"
)

// DeploymentPermission says who may create pools for an impl.
type DeploymentPermission uint8

const (
	DeployOwner DeploymentPermission = iota
	DeployPublic
)

func (p DeploymentPermission) String() string {
	switch p {
	case DeployOwner:
		return "Owner"
	case DeployPublic:
		return "Public"
	default:
		return fmt.Sprintf("DeploymentPermission(%d)", uint8(p))
	}
}

func (p DeploymentPermission) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *DeploymentPermission) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Owner":
		*p = DeployOwner
	case "Public":
		*p = DeployPublic
	default:
		return fmt.Errorf("unknown deployment permission %q", text)
	}
	return nil
}

// BuildRestriction is an inclusive build version range. Nil bounds are open.
type BuildRestriction struct {
	MinVersion *primitives.ImplBuildVersion `json:"min_version,omitempty"`
	MaxVersion *primitives.ImplBuildVersion `json:"max_version,omitempty"`
}

func (r BuildRestriction) Allows(v primitives.ImplBuildVersion) bool {
	if r.MinVersion != nil && v < *r.MinVersion {
		return false
	}
	if r.MaxVersion != nil && v > *r.MaxVersion {
		return false
	}
	return true
}

func (r BuildRestriction) valid() bool {
	return r.MinVersion == nil || r.MaxVersion == nil || *r.MinVersion <= *r.MaxVersion
}

type Impl struct {
	Owner                primitives.AccountId
	OwnerDeposit         primitives.Balance
	AttestationMethod    attestation.Method
	DeploymentPermission DeploymentPermission
	BuildRestriction     BuildRestriction
	// WorkersCount is the number of workers online with any build
	WorkersCount uint32
}

// CanDeploy reports whether who may create pools for the impl.
func (i Impl) CanDeploy(who primitives.AccountId) bool {
	return i.DeploymentPermission == DeployPublic || i.Owner == who
}

type BuildStatus uint8

const (
	// Released builds may go online
	Released BuildStatus = iota
	// Deprecated builds keep running workers but admit no new ones
	Deprecated
	// Blocked builds are offlined on their next heartbeat
	Blocked
)

func (s BuildStatus) String() string {
	switch s {
	case Released:
		return "Released"
	case Deprecated:
		return "Deprecated"
	case Blocked:
		return "Blocked"
	default:
		return fmt.Sprintf("BuildStatus(%d)", uint8(s))
	}
}

func (s BuildStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *BuildStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Released":
		*s = Released
	case "Deprecated":
		*s = Deprecated
	case "Blocked":
		*s = Blocked
	default:
		return fmt.Errorf("unknown build status %q", text)
	}
	return nil
}

type Build struct {
	Status BuildStatus
	// MagicBytes accepted for the build. Empty means any.
	MagicBytes   []primitives.ImplBuildMagicBytes
	WorkersCount uint32
}

func (b Build) acceptsMagicBytes(m primitives.ImplBuildMagicBytes) bool {
	if len(b.MagicBytes) == 0 {
		return true
	}
	return b.indexOf(m) >= 0
}

func (b Build) indexOf(m primitives.ImplBuildMagicBytes) int {
	for i, known := range b.MagicBytes {
		if known == m {
			return i
		}
	}
	return -1
}
