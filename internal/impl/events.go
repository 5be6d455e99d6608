package impl

import (
	"github.com/eigerco/computeplane/internal/primitives"
)

type implsEvent struct{}

func (implsEvent) Module() string { return Codespace }

type ImplRegistered struct {
	implsEvent
	ImplId primitives.ImplId    `json:"impl_id"`
	Owner  primitives.AccountId `json:"owner"`
}

type ImplDeregistered struct {
	implsEvent
	ImplId primitives.ImplId `json:"impl_id"`
}

type ImplMetadataUpdated struct {
	implsEvent
	ImplId primitives.ImplId `json:"impl_id"`
	Size   uint32            `json:"size"`
}

type ImplMetadataRemoved struct {
	implsEvent
	ImplId primitives.ImplId `json:"impl_id"`
}

type ImplBuildRestrictionUpdated struct {
	implsEvent
	ImplId      primitives.ImplId `json:"impl_id"`
	Restriction BuildRestriction  `json:"restriction"`
}

type ImplDeploymentPermissionUpdated struct {
	implsEvent
	ImplId     primitives.ImplId    `json:"impl_id"`
	Permission DeploymentPermission `json:"permission"`
}

type ImplBuildRegistered struct {
	implsEvent
	ImplId     primitives.ImplId                `json:"impl_id"`
	Version    primitives.ImplBuildVersion      `json:"version"`
	MagicBytes *primitives.ImplBuildMagicBytes  `json:"magic_bytes,omitempty"`
}

type ImplBuildStatusUpdated struct {
	implsEvent
	ImplId  primitives.ImplId           `json:"impl_id"`
	Version primitives.ImplBuildVersion `json:"version"`
	Status  BuildStatus                 `json:"status"`
}

type ImplBuildDeregistered struct {
	implsEvent
	ImplId  primitives.ImplId           `json:"impl_id"`
	Version primitives.ImplBuildVersion `json:"version"`
}

type ImplBuildMagicBytesRegistered struct {
	implsEvent
	ImplId     primitives.ImplId              `json:"impl_id"`
	Version    primitives.ImplBuildVersion    `json:"version"`
	MagicBytes primitives.ImplBuildMagicBytes `json:"magic_bytes"`
}

type ImplBuildMagicBytesDeregistered struct {
	implsEvent
	ImplId     primitives.ImplId              `json:"impl_id"`
	Version    primitives.ImplBuildVersion    `json:"version"`
	MagicBytes primitives.ImplBuildMagicBytes `json:"magic_bytes"`
}

func (ImplRegistered) EventName() string                  { return "ImplRegistered" }
func (ImplDeregistered) EventName() string                { return "ImplDeregistered" }
func (ImplMetadataUpdated) EventName() string             { return "ImplMetadataUpdated" }
func (ImplMetadataRemoved) EventName() string             { return "ImplMetadataRemoved" }
func (ImplBuildRestrictionUpdated) EventName() string     { return "ImplBuildRestrictionUpdated" }
func (ImplDeploymentPermissionUpdated) EventName() string { return "ImplDeploymentPermissionUpdated" }
func (ImplBuildRegistered) EventName() string             { return "ImplBuildRegistered" }
func (ImplBuildStatusUpdated) EventName() string          { return "ImplBuildStatusUpdated" }
func (ImplBuildDeregistered) EventName() string           { return "ImplBuildDeregistered" }
func (ImplBuildMagicBytesRegistered) EventName() string   { return "ImplBuildMagicBytesRegistered" }
func (ImplBuildMagicBytesDeregistered) EventName() string { return "ImplBuildMagicBytesDeregistered" }
