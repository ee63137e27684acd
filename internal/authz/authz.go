// Package authz is the single capability predicate for officer roles. Keeping
// the rule table here, away from transport, makes the authorization policy
// testable without standing up the HTTP layer.
package authz

import (
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
)

// Operation names a privileged engine operation.
type Operation string

const (
	OpIssueLicense      Operation = "license.issue"
	OpRevokeLicense     Operation = "license.revoke"
	OpSuspendLicense    Operation = "license.suspend"
	OpReactivateLicense Operation = "license.reactivate"
	OpMint              Operation = "emission.mint"
	OpBurn              Operation = "emission.burn"
	OpTransfer          Operation = "transfer.execute"
	OpUpdatePolicy      Operation = "policy.update"
)

// capabilities maps each role to the operations it may authorize. Board
// members get the reversible license toggles and transfers; everything that
// creates or destroys supply, issues or terminates licenses, or changes
// policy requires the Governor.
var capabilities = map[domain.OfficerRole]map[Operation]bool{
	domain.RoleGovernor: {
		OpIssueLicense:      true,
		OpRevokeLicense:     true,
		OpSuspendLicense:    true,
		OpReactivateLicense: true,
		OpMint:              true,
		OpBurn:              true,
		OpTransfer:          true,
		OpUpdatePolicy:      true,
	},
	domain.RoleBoardMember: {
		OpSuspendLicense:    true,
		OpReactivateLicense: true,
		OpTransfer:          true,
	},
}

// CanAuthorize reports whether the role may perform the operation.
func CanAuthorize(role domain.OfficerRole, op Operation) bool {
	return capabilities[role][op]
}

// Require returns a coded error unless the officer's role covers the
// operation. Services call this first, before touching any state.
func Require(officer domain.Officer, op Operation) error {
	if officer.ID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity is missing")
	}
	if !CanAuthorize(officer.Role, op) {
		return dErrors.Newf(dErrors.CodeUnauthorized, "role %s may not perform %s", officer.Role, op)
	}
	return nil
}
