// Package authz holds the single ownership/role guard used by every owned
// resource route (stock, needs, donations, eco-habits).
package authz

import (
	"github.com/google/uuid"
)

// Roles assignable to a user. RoleAdmin is provisioned out of band and can
// never be self-assigned through the onboarding workflow.
const (
	RoleWarga = "warga"
	RoleKetua = "ketua"
	RoleAdmin = "admin"
)

// Identity is the fully-resolved caller: JWT subject plus the profile row
// fields the guard needs. Handlers receive it from the auth middleware and
// never re-derive it.
type Identity struct {
	ID            uuid.UUID
	Email         string
	Nama          string
	Role          string
	DesaID        *uuid.UUID
	RoleConfirmed bool
	Points        int
}

// Elevated reports whether the identity carries a privileged role.
func (i Identity) Elevated() bool {
	return i.Role == RoleKetua || i.Role == RoleAdmin
}

// Action describes the kind of access being requested.
type Action int

const (
	ActionRead Action = iota
	ActionWrite
	ActionDelete
)

// Decision is the guard's verdict.
type Decision int

const (
	Allow Decision = iota
	Forbidden
)

// Resource is the minimal view of an owned row the guard operates on.
// OwnerDesaID is the resource owner's village, joined in by the repository
// when the row does not embed it.
type Resource struct {
	OwnerID     uuid.UUID
	OwnerDesaID *uuid.UUID
}

// Authorize decides whether actor may perform action on res.
//
//  1. The owner may always act on their own rows.
//  2. An admin acts globally (villages are administered platform-wide).
//  3. A ketua acts only on rows whose owner belongs to the ketua's village.
//     A ketua without a village is denied rather than granted an unscoped
//     pass.
//  4. Everyone else is denied.
//
// The action parameter is part of the contract so policies can diverge per
// access kind later; today all three kinds share the same rule.
func Authorize(actor Identity, res Resource, action Action) Decision {
	if actor.ID == res.OwnerID {
		return Allow
	}

	if actor.Role == RoleAdmin {
		return Allow
	}

	if actor.Role == RoleKetua && actor.DesaID != nil && res.OwnerDesaID != nil && *actor.DesaID == *res.OwnerDesaID {
		return Allow
	}

	return Forbidden
}

// ValidSelfServiceRole reports whether role may be chosen during onboarding.
func ValidSelfServiceRole(role string) bool {
	return role == RoleWarga || role == RoleKetua
}
