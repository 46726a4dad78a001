package domain

import (
	"database/sql"
)

type User struct {
	ID            int64          `json:"id"`
	Username      string         `json:"username"`
	Password      string         `json:"-"`
	FullName      string         `json:"fullName"`
	Role          Role           `json:"role"`
	SessionID     sql.NullString `json:"-"`
	ApiKey        sql.NullString `json:"apiKey"`
	SessionExpiry sql.NullTime   `json:"-"`
	Created       sql.NullTime   `json:"created"`
	Enabled       sql.NullBool   `json:"enabled"`
}
