// AngelaMos | 2026
// entity.go

package waitlist

import (
	"slices"
	"time"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type Status string

const (
	StatusWaiting   Status = "WAITING"
	StatusNotified  Status = "NOTIFIED"
	StatusSeated    Status = "SEATED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusNotified, StatusSeated, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether an entry in this status holds a queue position.
func (s Status) IsActive() bool {
	return s == StatusWaiting || s == StatusNotified
}

type Action string

const (
	ActionNotify Action = "notify"
	ActionSeat   Action = "seat"
	ActionCancel Action = "cancel"
)

var transitionMap = map[Action][]Status{
	ActionNotify: {StatusWaiting},
	ActionSeat:   {StatusNotified},
	ActionCancel: {StatusWaiting, StatusNotified},
}

var actionTarget = map[Status]Action{
	StatusNotified:  ActionNotify,
	StatusSeated:    ActionSeat,
	StatusCancelled: ActionCancel,
}

func ValidTransition(action Action, from Status) bool {
	return slices.Contains(transitionMap[action], from)
}

// ActionFor maps a requested target status onto the action reaching it.
// WAITING is never a target.
func ActionFor(target Status) (Action, bool) {
	a, ok := actionTarget[target]
	return a, ok
}

type Entry struct {
	ID                string     `db:"id"`
	BusinessID        string     `db:"business_id"`
	CustomerID        string     `db:"customer_id"`
	PartySize         int        `db:"party_size"`
	Position          int        `db:"position"`
	EstimatedWaitTime int        `db:"estimated_wait_time"`
	Status            Status     `db:"status"`
	Notes             string     `db:"notes"`
	NotifiedAt        *time.Time `db:"notified_at"`
	SeatedAt          *time.Time `db:"seated_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// Detail is an entry joined with the names shown on queue screens.
type Detail struct {
	Entry
	BusinessName  string `db:"business_name"`
	CustomerName  string `db:"customer_name"`
	CustomerPhone string `db:"customer_phone"`
}

func (e *Entry) IsActive() bool {
	return e.Status.IsActive()
}

// EstimatedWait is position times the average service time, in whole
// minutes.
func EstimatedWait(position, averageServiceTime int) int {
	if position < 1 || averageServiceTime < 0 {
		return 0
	}
	return position * averageServiceTime
}

func (e *Entry) apply(action Action, now time.Time) error {
	if !ValidTransition(action, e.Status) {
		return core.Errorf(core.ErrInvalidState,
			"cannot %s a waitlist entry that is %s", action, e.Status)
	}

	switch action {
	case ActionNotify:
		e.Status = StatusNotified
		e.NotifiedAt = &now
	case ActionSeat:
		e.Status = StatusSeated
		e.SeatedAt = &now
	case ActionCancel:
		e.Status = StatusCancelled
	}
	e.UpdatedAt = now

	return nil
}

func (e *Entry) Notify(now time.Time) error {
	return e.apply(ActionNotify, now)
}

func (e *Entry) Seat(now time.Time) error {
	return e.apply(ActionSeat, now)
}

func (e *Entry) Cancel(now time.Time) error {
	return e.apply(ActionCancel, now)
}
