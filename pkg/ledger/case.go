package ledger

import "time"

// Status is the lifecycle state of an investigation case.
type Status string

const (
	// StatusOpen marks a freshly raised inquiry awaiting triage.
	StatusOpen Status = "OPEN"

	// StatusPendingResponse marks a case waiting on the counterparty.
	StatusPendingResponse Status = "PENDING_RESPONSE"

	// StatusResolved marks an answered inquiry. The case stays open to
	// amendment until it is closed.
	StatusResolved Status = "RESOLVED"

	// StatusEscalated marks a case handed to manual exception handling.
	StatusEscalated Status = "ESCALATED"

	// StatusClosed is terminal. A closed case accepts no mutation.
	StatusClosed Status = "CLOSED"
)

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPendingResponse, StatusResolved, StatusEscalated, StatusClosed:
		return true
	}
	return false
}

// transitions lists the permitted status moves. CLOSED has no exits,
// which is what makes closure irreversible.
var transitions = map[Status][]Status{
	StatusOpen:            {StatusPendingResponse, StatusResolved, StatusEscalated, StatusClosed},
	StatusPendingResponse: {StatusOpen, StatusResolved, StatusEscalated, StatusClosed},
	StatusEscalated:       {StatusPendingResponse, StatusResolved, StatusClosed},
	StatusResolved:        {StatusEscalated, StatusClosed},
	StatusClosed:          {},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Entry is one line of case history.
type Entry struct {
	At    time.Time `json:"at"`
	Actor string    `json:"actor"`
	Note  string    `json:"note"`
}

// ActorSystem names the engine itself in entries it writes, as opposed
// to an operator acting through the API.
const ActorSystem = "system"

// Case is one investigation about one message.
type Case struct {
	ID          string     `json:"id"`
	MessageID   string     `json:"messageId"`
	InquiryType string     `json:"inquiryType"`
	Status      Status     `json:"status"`
	Institution string     `json:"institution,omitempty"`
	Resolution  string     `json:"resolution,omitempty"`
	Entries     []Entry    `json:"entries,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
}

// Closed reports whether the case has reached its terminal status.
func (c *Case) Closed() bool {
	return c.Status == StatusClosed
}

func (c *Case) appendEntry(at time.Time, actor, note string) {
	if actor == "" {
		actor = ActorSystem
	}
	c.Entries = append(c.Entries, Entry{At: at, Actor: actor, Note: note})
}
