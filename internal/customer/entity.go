// AngelaMos | 2026
// entity.go

package customer

import (
	"slices"
	"strings"
	"time"
)

type Customer struct {
	ID        string    `db:"id"`
	Phone     string    `db:"phone"`
	Name      string    `db:"name"`
	Email     *string   `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	BusinessIDs []string `db:"-"`
}

func (c *Customer) HasBusiness(businessID string) bool {
	return slices.Contains(c.BusinessIDs, businessID)
}

// UpdateContactInfo applies the non-empty fields.
func (c *Customer) UpdateContactInfo(name, email string) {
	if name = strings.TrimSpace(name); name != "" {
		c.Name = name
	}
	if email = strings.TrimSpace(email); email != "" {
		lower := strings.ToLower(email)
		c.Email = &lower
	}
}

// NormalizePhone strips formatting so lookups match however the number
// was typed. A leading + is kept.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	var b strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}

	return b.String()
}
