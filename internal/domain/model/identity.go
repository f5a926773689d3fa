package model

import "time"

// Identity is the caller identity carried by the configured bearer
// credential. Claims are parsed without signature verification: the
// backend is the verifier, the client only displays who it is acting as
// and warns when the credential is about to lapse.
type Identity struct {
	Subject   string     `json:"subject"`
	Email     string     `json:"email,omitempty"`
	Name      string     `json:"name,omitempty"`
	PlanID    string     `json:"plan_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the credential is past its expiry at now. An
// identity without an expiry claim never reads as expired.
func (i Identity) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}
