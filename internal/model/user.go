package model

// User represents an angler's profile as stored in the `users` table.
// The identity provider owns the credentials (see Account); the profile is
// looked up by the provider-assigned UID, never by the row ID.
//
// Fields:
//  ID        – profile row identifier (UUID).
//  UID       – identity-provider account id (UUID), unique.
//  Email     – account email address.
//  Name      – display name.
//  Nickname  – public nickname, unique across all accounts.
//  CreatedAt – RFC 3339 creation timestamp.
//  UpdatedAt – RFC 3339 timestamp of the last profile change.
type User struct {
    ID        string `json:"id"`         // users.id
    UID       string `json:"uid"`        // users.uid
    Email     string `json:"email"`      // users.email
    Name      string `json:"name"`       // users.name
    Nickname  string `json:"nickname"`   // users.nickname
    CreatedAt string `json:"created_at"` // users.created_at
    UpdatedAt string `json:"updated_at"` // users.updated_at
}

// Account models a row in the `accounts` table: the credentials half of a
// registered user.  Only the bcrypt hash of the password is stored.
//
// Fields:
//  UID          – primary key, shared with users.uid.
//  Email        – unique, lower-cased login email.
//  PasswordHash – bcrypt hash.
//  CreatedAt    – RFC 3339 creation timestamp.
type Account struct {
    UID          string // accounts.uid
    Email        string // accounts.email
    PasswordHash string // accounts.password_hash
    CreatedAt    string // accounts.created_at
}
