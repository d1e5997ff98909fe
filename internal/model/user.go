package model

import "time"

// User represents an application user record as stored in the `users`
// table.  A user row exists only after the caller, already authenticated
// by the identity provider, completed registration.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Auth0ID   – provider subject ("sub" claim); unique and immutable.
//  Username  – display name chosen at registration.
//  Email     – contact email supplied at registration.
//  CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    `json:"id"`         // users.id
	Auth0ID   string    `json:"-"`          // users.auth0_id
	Username  string    `json:"username"`   // users.username
	Email     string    `json:"email"`      // users.email
	CreatedAt time.Time `json:"created_at"` // users.created_at
}
