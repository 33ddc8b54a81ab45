package model

import "time"

// Scope is the tenant identity an access token resolves to. Cached scopes
// are immutable snapshots taken at first successful resolution.
type Scope struct {
	AccountID     int64 `json:"account_id"`
	EnvironmentID int64 `json:"environment_id"`
	Revoked       bool  `json:"revoked"`
}

// AccessToken is a row of the tokens table.
type AccessToken struct {
	Token         string     `db:"token"`
	AccountID     int64      `db:"account_id"`
	EnvironmentID int64      `db:"environment_id"`
	Revoked       bool       `db:"revoked"`
	CreatedAt     time.Time  `db:"created_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
}

// Scope returns the snapshot cached for this token.
func (t AccessToken) Scope() Scope {
	return Scope{
		AccountID:     t.AccountID,
		EnvironmentID: t.EnvironmentID,
		Revoked:       t.Revoked,
	}
}
