package hostuser

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the host side user record synced from the forum
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username        string     `bun:"username,notnull,unique" json:"username,omitempty"`
	RealName        string     `bun:"real_name" json:"real_name,omitempty"`
	Email           string     `bun:"email" json:"email,omitempty"`
	EmailValidated  bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	EmailVerifiedAt *time.Time `bun:"email_verified_at,nullzero" json:"email_verified_at,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

func (u *User) GetUsername() string {
	return u.Username
}

func (u *User) SetEmail(email string) {
	u.Email = email
}

func (u *User) SetRealName(name string) {
	u.RealName = name
}

func (u *User) SetEmailConfirmed(confirmed bool) {
	if confirmed == u.EmailValidated {
		return
	}

	u.EmailValidated = confirmed
	if confirmed {
		now := time.Now()
		u.EmailVerifiedAt = &now
	} else {
		u.EmailVerifiedAt = nil
	}
}

// UserGroup is a host group membership
type UserGroup struct {
	bun.BaseModel `bun:"table:user_groups,alias:ug"`
	UserID        uuid.UUID  `bun:"user_id,pk,type:uuid" json:"user_id"`
	GroupName     string     `bun:"group_name,pk" json:"group_name"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
