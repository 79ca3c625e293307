// AngelaMos | 2026
// entity.go

package business

import (
	"time"
)

type Type string

const (
	TypeRestaurant Type = "RESTAURANT"
	TypeCafe       Type = "CAFE"
	TypeBar        Type = "BAR"
	TypeSalon      Type = "SALON"
	TypeClinic     Type = "CLINIC"
	TypeOther      Type = "OTHER"
)

func (t Type) Valid() bool {
	switch t {
	case TypeRestaurant, TypeCafe, TypeBar, TypeSalon, TypeClinic, TypeOther:
		return true
	}
	return false
}

const (
	DefaultServiceTime = 60
	DefaultCapacity    = 50
)

type Business struct {
	ID                 string    `db:"id"`
	Name               string    `db:"name"`
	Type               Type      `db:"type"`
	Address            string    `db:"address"`
	Phone              string    `db:"phone"`
	Email              string    `db:"email"`
	Capacity           int       `db:"capacity"`
	AverageServiceTime int       `db:"average_service_time"`
	IsActive           bool      `db:"is_active"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// CanAccommodate is informational; the waitlist does not enforce it.
func (b *Business) CanAccommodate(partySize int) bool {
	return b.IsActive && partySize <= b.Capacity
}

// EstimatedWait is the wait in minutes for the given 1-based position.
func (b *Business) EstimatedWait(position int) int {
	if position < 1 {
		return 0
	}
	return position * b.AverageServiceTime
}

func (b *Business) Deactivate() {
	b.IsActive = false
}
