package model

import "time"

// Household is a shared expense-tracking group.  The creator is always a
// member and is the only user allowed to mint invites.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name.
//  CreatorID   – user who created the household.
//  CreatorName – username of the creator (joined, read-only).
//  CreatedAt   – timestamp of creation.
type Household struct {
	ID          uint64    `json:"id"`           // households.id
	Name        string    `json:"name"`         // households.name
	CreatorID   uint64    `json:"creator_id"`   // households.creator_id
	CreatorName string    `json:"creator_name"` // users.username of creator
	CreatedAt   time.Time `json:"created_at"`   // households.created_at
}

// Member is one row of a household's member list.
type Member struct {
	UserID    uint64    `json:"user_id"`   // household_members.user_id
	Username  string    `json:"username"`  // users.username
	Email     string    `json:"email"`     // users.email
	IsCreator bool      `json:"is_creator"`
	JoinedAt  time.Time `json:"joined_at"` // household_members.joined_at
}
