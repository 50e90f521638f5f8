package domain

import "time"

// Turn is one completed question/answer exchange in a session.
type Turn struct {
	// ID uniquely identifies the turn in the audit log.
	ID string

	// Question is what the user asked.
	Question string

	// Answer is the full generated reply.
	Answer string

	// CreatedAt is when the turn completed.
	CreatedAt time.Time
}
