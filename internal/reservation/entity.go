// AngelaMos | 2026
// entity.go

package reservation

import (
	"slices"
	"time"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// ActiveStatuses hold a slot at their date and time.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

func (s Status) IsActive() bool {
	return slices.Contains(ActiveStatuses, s)
}

type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

var transitionMap = map[Action][]Status{
	ActionConfirm:  {StatusPending},
	ActionCancel:   {StatusPending, StatusConfirmed},
	ActionComplete: {StatusConfirmed},
}

var actionResult = map[Action]Status{
	ActionConfirm:  StatusConfirmed,
	ActionCancel:   StatusCancelled,
	ActionComplete: StatusCompleted,
}

func ValidTransition(action Action, from Status) bool {
	return slices.Contains(transitionMap[action], from)
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Reservation struct {
	ID              string    `db:"id"`
	BusinessID      string    `db:"business_id"`
	CustomerID      string    `db:"customer_id"`
	Date            string    `db:"reservation_date"`
	Time            string    `db:"reservation_time"`
	PartySize       int       `db:"party_size"`
	Status          Status    `db:"status"`
	SpecialRequests string    `db:"special_requests"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type Detail struct {
	Reservation
	BusinessName  string `db:"business_name"`
	CustomerName  string `db:"customer_name"`
	CustomerPhone string `db:"customer_phone"`
}

func (r *Reservation) IsActive() bool {
	return r.Status.IsActive()
}

func (r *Reservation) apply(action Action, now time.Time) error {
	if !ValidTransition(action, r.Status) {
		return core.Errorf(core.ErrInvalidState,
			"cannot %s a reservation that is %s", action, r.Status)
	}
	r.Status = actionResult[action]
	r.UpdatedAt = now
	return nil
}

func (r *Reservation) Confirm(now time.Time) error {
	return r.apply(ActionConfirm, now)
}

func (r *Reservation) Cancel(now time.Time) error {
	return r.apply(ActionCancel, now)
}

func (r *Reservation) Complete(now time.Time) error {
	return r.apply(ActionComplete, now)
}

// ParseSlot validates a date and time and returns them in canonical form.
func ParseSlot(date, clock string) (string, string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", "", core.Errorf(core.ErrInvalidInput,
			"reservation_date must be formatted as YYYY-MM-DD")
	}

	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		t, err = time.Parse("15:04:05", clock)
		if err != nil {
			return "", "", core.Errorf(core.ErrInvalidInput,
				"reservation_time must be formatted as HH:MM")
		}
	}

	return d.Format(DateLayout), t.Format(TimeLayout), nil
}
