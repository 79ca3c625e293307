// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
)

// MaxStaffPerOwner caps the active staff accounts across an owner's
// businesses.
const MaxStaffPerOwner = 3

type User struct {
	ID           string      `db:"id"`
	Username     string      `db:"username"`
	Email        string      `db:"email"`
	PasswordHash string      `db:"password_hash"`
	Role         access.Role `db:"role"`
	IsActive     bool        `db:"is_active"`
	TokenVersion int         `db:"token_version"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`

	Businesses []Membership `db:"-"`
}

type Membership struct {
	UserID       string `db:"user_id"`
	BusinessID   string `db:"business_id"`
	BusinessName string `db:"business_name"`
	BusinessType string `db:"business_type"`
}

func (u *User) BusinessIDs() []string {
	ids := make([]string, 0, len(u.Businesses))
	for _, m := range u.Businesses {
		ids = append(ids, m.BusinessID)
	}
	return ids
}

func (u *User) Identity() access.Identity {
	return access.Identity{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		BusinessIDs: u.BusinessIDs(),
	}
}

func (u *User) Activate() {
	u.IsActive = true
}

func (u *User) Deactivate() {
	u.IsActive = false
}
