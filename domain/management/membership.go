package management

import (
	"time"

	pkgerrors "mgmtapi/pkg/errors"
)

// MembershipReferenceType identifies the kind of resource a membership
// attaches a user to.
type MembershipReferenceType string

const (
	MembershipReferenceTypeManagement  MembershipReferenceType = "MANAGEMENT"
	MembershipReferenceTypePortal      MembershipReferenceType = "PORTAL"
	MembershipReferenceTypeApi         MembershipReferenceType = "API"
	MembershipReferenceTypeApplication MembershipReferenceType = "APPLICATION"
	MembershipReferenceTypeGroup       MembershipReferenceType = "GROUP"
)

// ParseMembershipReferenceType decodes a stored reference type token,
// rejecting unknown values.
func ParseMembershipReferenceType(s string) (MembershipReferenceType, error) {
	switch MembershipReferenceType(s) {
	case MembershipReferenceTypeManagement,
		MembershipReferenceTypePortal,
		MembershipReferenceTypeApi,
		MembershipReferenceTypeApplication,
		MembershipReferenceTypeGroup:
		return MembershipReferenceType(s), nil
	}
	return "", pkgerrors.NewValidationError("unknown membership reference type '" + s + "'")
}

// RoleScope is the numeric scope a role name is qualified by.
type RoleScope int

const (
	RoleScopeManagement  RoleScope = 1
	RoleScopePortal      RoleScope = 2
	RoleScopeApi         RoleScope = 3
	RoleScopeApplication RoleScope = 4
	RoleScopeGroup       RoleScope = 5
)

// Membership grants a user roles on a referenced resource. It has no
// id of its own: identity is the (UserID, ReferenceType, ReferenceID)
// triple. Roles maps a role scope id to a role name.
type Membership struct {
	UserID        string
	ReferenceID   string
	ReferenceType MembershipReferenceType
	Roles         map[int]string
	CreatedAt     *time.Time
	UpdatedAt     *time.Time
}
