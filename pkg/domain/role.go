package domain

import dErrors "altanbank/pkg/domain-errors"

// OfficerRole is the authority level attached to a resolved caller identity.
// The engine trusts the role handed over by the authentication boundary; it
// never inspects wallets or signatures itself.
type OfficerRole string

const (
	RoleGovernor    OfficerRole = "GOVERNOR"
	RoleBoardMember OfficerRole = "BOARD_MEMBER"
)

func (r OfficerRole) Valid() bool {
	return r == RoleGovernor || r == RoleBoardMember
}

func ParseOfficerRole(raw string) (OfficerRole, error) {
	role := OfficerRole(raw)
	if !role.Valid() {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown officer role %q", raw)
	}
	return role, nil
}

// Officer is the pre-resolved caller identity received from the
// authentication boundary on every authenticated operation.
type Officer struct {
	ID   OfficerID
	Role OfficerRole
}
