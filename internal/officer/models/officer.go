package models

import (
	"time"

	"altanbank/pkg/domain"
)

// CentralBankOfficer is the directory entry for an officer identity. Officers
// are provisioned by the external authentication boundary; the engine only
// reads them so issuedBy and authorizedBy back-references resolve to a
// person.
type CentralBankOfficer struct {
	ID            domain.OfficerID   `json:"id"`
	WalletAddress string             `json:"wallet_address"`
	Role          domain.OfficerRole `json:"role"`
	IsActive      bool               `json:"is_active"`
	CreatedAt     time.Time          `json:"created_at"`
}
