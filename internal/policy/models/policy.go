package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
)

// MonetaryPolicy is one version of the system-wide monetary parameters.
//
// Invariants:
//   - OfficialRate > 0
//   - 0 <= ReserveRequirement <= 1
//   - DailyEmissionLimit > 0
//   - Exactly one row is active at any time; a policy change deactivates the
//     predecessor and inserts the successor in the same atomic step
//   - Rows are never mutated after insertion (history is retained forever)
type MonetaryPolicy struct {
	ID                 domain.PolicyID  `json:"id"`
	OfficialRate       decimal.Decimal  `json:"official_rate"`
	ReserveRequirement decimal.Decimal  `json:"reserve_requirement"`
	DailyEmissionLimit decimal.Decimal  `json:"daily_emission_limit"`
	IsActive           bool             `json:"is_active"`
	EffectiveFrom      time.Time        `json:"effective_from"`
	CreatedBy          domain.OfficerID `json:"created_by"`
}

// PolicyChange is one audit entry, one per changed parameter per update.
type PolicyChange struct {
	ID            uuid.UUID        `json:"id"`
	Parameter     string           `json:"parameter"`
	PreviousValue decimal.Decimal  `json:"previous_value"`
	NewValue      decimal.Decimal  `json:"new_value"`
	Reason        string           `json:"reason"`
	AuthorizedBy  domain.OfficerID `json:"authorized_by"`
	EffectiveAt   time.Time        `json:"effective_at"`
}

// Parameter names as stored in the change log.
const (
	ParamOfficialRate       = "official_rate"
	ParamReserveRequirement = "reserve_requirement"
	ParamDailyEmissionLimit = "daily_emission_limit"
)

// PolicyUpdate carries the requested parameter changes; nil fields keep the
// previous policy's value.
type PolicyUpdate struct {
	OfficialRate       *decimal.Decimal
	ReserveRequirement *decimal.Decimal
	DailyEmissionLimit *decimal.Decimal
}

// IsEmpty reports whether the update changes nothing.
func (u PolicyUpdate) IsEmpty() bool {
	return u.OfficialRate == nil && u.ReserveRequirement == nil && u.DailyEmissionLimit == nil
}

// Validate checks each provided field against its domain.
func (u PolicyUpdate) Validate() error {
	if u.OfficialRate != nil && !u.OfficialRate.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidInput, "official rate must be positive")
	}
	if u.ReserveRequirement != nil {
		if u.ReserveRequirement.IsNegative() || u.ReserveRequirement.GreaterThan(decimal.NewFromInt(1)) {
			return dErrors.New(dErrors.CodeInvalidInput, "reserve requirement must be between 0 and 1")
		}
	}
	if u.DailyEmissionLimit != nil && !u.DailyEmissionLimit.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidInput, "daily emission limit must be positive")
	}
	return nil
}

// Successor builds the next policy version, merging unspecified fields from
// the previous active policy, plus one change entry per differing parameter.
func (u PolicyUpdate) Successor(prev *MonetaryPolicy, authorizedBy domain.OfficerID, reason string, now time.Time) (*MonetaryPolicy, []PolicyChange) {
	next := &MonetaryPolicy{
		ID:                 domain.PolicyID(uuid.New()),
		OfficialRate:       prev.OfficialRate,
		ReserveRequirement: prev.ReserveRequirement,
		DailyEmissionLimit: prev.DailyEmissionLimit,
		IsActive:           true,
		EffectiveFrom:      now,
		CreatedBy:          authorizedBy,
	}
	if u.OfficialRate != nil {
		next.OfficialRate = *u.OfficialRate
	}
	if u.ReserveRequirement != nil {
		next.ReserveRequirement = *u.ReserveRequirement
	}
	if u.DailyEmissionLimit != nil {
		next.DailyEmissionLimit = *u.DailyEmissionLimit
	}

	change := func(param string, prevVal, newVal decimal.Decimal) PolicyChange {
		return PolicyChange{
			ID:            uuid.New(),
			Parameter:     param,
			PreviousValue: prevVal,
			NewValue:      newVal,
			Reason:        reason,
			AuthorizedBy:  authorizedBy,
			EffectiveAt:   now,
		}
	}

	var changes []PolicyChange
	if !next.OfficialRate.Equal(prev.OfficialRate) {
		changes = append(changes, change(ParamOfficialRate, prev.OfficialRate, next.OfficialRate))
	}
	if !next.ReserveRequirement.Equal(prev.ReserveRequirement) {
		changes = append(changes, change(ParamReserveRequirement, prev.ReserveRequirement, next.ReserveRequirement))
	}
	if !next.DailyEmissionLimit.Equal(prev.DailyEmissionLimit) {
		changes = append(changes, change(ParamDailyEmissionLimit, prev.DailyEmissionLimit, next.DailyEmissionLimit))
	}
	return next, changes
}
