package models

import "time"

// User mirrors an identity from the token issuer. Rows are upserted from
// verified claims; passwords never reach this service.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Subject   string    `gorm:"uniqueIndex;not null;size:200" json:"-"`
	Email     string    `gorm:"index;size:320" json:"email"`
	Username  string    `gorm:"size:100" json:"username"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
