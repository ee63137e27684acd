package models

import "time"

// EndpointClass groups routes that share a budget. Mutations are the only
// limited class; reads stay unthrottled.
type EndpointClass string

const (
	// ClassMutation covers mint, burn, transfer and the license and policy
	// write endpoints.
	ClassMutation EndpointClass = "mutation"
)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"`
}
