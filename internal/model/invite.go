package model

import "time"

// Invite grants membership in a household to whoever redeems its code while
// it is active and unexpired.  A code may be redeemed by many distinct
// users; each user can join through it once.
//
// Fields:
//  ID          – primary key identifier.
//  HouseholdID – household the invite admits into.
//  Code        – 8 character code over [A-Z0-9]; unique.
//  IsActive    – whether the invite may still be redeemed.
//  CreatedAt   – timestamp of creation.
//  ExpiresAt   – expiry (nil means the invite never expires).
type Invite struct {
	ID          uint64     `json:"id"`           // invites.id
	HouseholdID uint64     `json:"household_id"` // invites.household_id
	Code        string     `json:"invite_code"`  // invites.invite_code
	IsActive    bool       `json:"is_active"`    // invites.is_active
	CreatedAt   time.Time  `json:"created_at"`   // invites.created_at
	ExpiresAt   *time.Time `json:"expires_at"`   // invites.expires_at (nullable)
}

// Expired reports whether the invite's expiry lies before now.  The
// expiry instant itself is still redeemable.
func (i Invite) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}
