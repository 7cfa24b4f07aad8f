package core

import "fmt"

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// InvalidTransitionError reports a pipeline transition rejected by the
// transition table.
type InvalidTransitionError struct {
	SetID int
	From  SetStatus
	To    SetStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("set %d: invalid transition %s → %s", e.SetID, e.From, e.To)
}

// ConflictError reports that a concurrent writer changed a set's status
// between the guard read and the conditional write.
type ConflictError struct {
	SetID    int
	Expected SetStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("set %d: concurrent status change detected (expected %s)", e.SetID, e.Expected)
}

// ValidationError reports malformed input (non-positive amount, missing
// field, unknown enum value).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// UnauthorizedError reports a call made without an acting team member.
// Role-based authorization is enforced by the caller boundary; the core only
// rejects missing actors.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return e.Reason
}

// requireActor rejects calls made without an authenticated actor identity.
func requireActor(actorID int) error {
	if actorID <= 0 {
		return &UnauthorizedError{Reason: "acting team member is required"}
	}
	return nil
}
