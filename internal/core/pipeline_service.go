package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PipelineService owns set intake and the guarded status state machine.
// Every successful transition writes exactly one history row and one
// activity-log row in the same transaction as the status change.
type PipelineService interface {
	CreateSet(ctx context.Context, in CreateSetInput) (*Set, error)
	GetSet(ctx context.Context, setID int) (*Set, error)
	ListSets(ctx context.Context, status *SetStatus) ([]Set, error)
	GetStatusHistory(ctx context.Context, setID int) ([]StatusChange, error)

	// TransitionStatus moves a set to target if the transition table allows
	// it from the set's current status. Returns InvalidTransitionError when
	// the table forbids the move and ConflictError when a concurrent writer
	// got there first.
	TransitionStatus(ctx context.Context, setID int, target SetStatus, actorID int, notes string) (*Set, error)

	// RegisterFollowUp records a follow_up deal outcome and moves the set to
	// seguimiento, as one unit of work.
	RegisterFollowUp(ctx context.Context, setID int, followUpDate time.Time, notes string, actorID int) error

	// RegisterDisqualification records a descalificado deal outcome and moves
	// the set to descalificado, as one unit of work.
	RegisterDisqualification(ctx context.Context, setID int, reason string, actorID int) error
}

// CreateSetInput is the intake form for a new prospect call.
type CreateSetInput struct {
	ProspectName  string
	ProspectEmail string
	ProspectPhone string
	SetterID      int
	CloserID      int
	ScheduledAt   time.Time
	Service       string
	IsDuplicate   bool
	Notes         string
	ActorID       int
}

type pipelineService struct {
	pool *pgxpool.Pool
}

// NewPipelineService constructs a PipelineService backed by the given pool.
func NewPipelineService(pool *pgxpool.Pool) PipelineService {
	return &pipelineService{pool: pool}
}

const setColumns = `id, prospect_name, prospect_email, prospect_phone, setter_id, closer_id,
	scheduled_at, service, status, is_duplicate, notes, created_at, updated_at`

func scanSet(row pgx.Row) (*Set, error) {
	var s Set
	err := row.Scan(
		&s.ID, &s.ProspectName, &s.ProspectEmail, &s.ProspectPhone, &s.SetterID, &s.CloserID,
		&s.ScheduledAt, &s.Service, &s.Status, &s.IsDuplicate, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *pipelineService) CreateSet(ctx context.Context, in CreateSetInput) (*Set, error) {
	if err := requireActor(in.ActorID); err != nil {
		return nil, err
	}
	if in.ProspectName == "" {
		return nil, &ValidationError{Msg: "prospect name is required"}
	}
	if in.SetterID <= 0 || in.CloserID <= 0 {
		return nil, &ValidationError{Msg: "setter and closer are required"}
	}
	if in.ScheduledAt.IsZero() {
		return nil, &ValidationError{Msg: "scheduled call time is required"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	set, err := scanSet(tx.QueryRow(ctx, `
		INSERT INTO sets (prospect_name, prospect_email, prospect_phone, setter_id, closer_id,
		                  scheduled_at, service, status, is_duplicate, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+setColumns,
		in.ProspectName, in.ProspectEmail, in.ProspectPhone, in.SetterID, in.CloserID,
		in.ScheduledAt, in.Service, StatusAgendado, in.IsDuplicate, in.Notes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert set: %w", err)
	}

	if err := logActivityTx(ctx, tx, in.ActorID, "set_created", "set", set.ID,
		fmt.Sprintf("set for %s scheduled at %s", in.ProspectName, in.ScheduledAt.Format("2006-01-02 15:04"))); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit set creation: %w", err)
	}
	return set, nil
}

func (s *pipelineService) GetSet(ctx context.Context, setID int) (*Set, error) {
	set, err := scanSet(s.pool.QueryRow(ctx, "SELECT "+setColumns+" FROM sets WHERE id = $1", setID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "set", ID: setID}
		}
		return nil, fmt.Errorf("failed to fetch set %d: %w", setID, err)
	}
	return set, nil
}

func (s *pipelineService) ListSets(ctx context.Context, status *SetStatus) ([]Set, error) {
	query := "SELECT " + setColumns + " FROM sets"
	args := []any{}
	if status != nil {
		if !ValidStatus(*status) {
			return nil, &ValidationError{Msg: fmt.Sprintf("unknown status %q", *status)}
		}
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY scheduled_at DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets: %w", err)
	}
	defer rows.Close()

	var sets []Set
	for rows.Next() {
		var st Set
		if err := rows.Scan(
			&st.ID, &st.ProspectName, &st.ProspectEmail, &st.ProspectPhone, &st.SetterID, &st.CloserID,
			&st.ScheduledAt, &st.Service, &st.Status, &st.IsDuplicate, &st.Notes, &st.CreatedAt, &st.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan set: %w", err)
		}
		sets = append(sets, st)
	}
	return sets, rows.Err()
}

func (s *pipelineService) GetStatusHistory(ctx context.Context, setID int) ([]StatusChange, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, set_id, old_status, new_status, actor_id, notes, created_at
		FROM set_status_history
		WHERE set_id = $1
		ORDER BY id ASC
	`, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history for set %d: %w", setID, err)
	}
	defer rows.Close()

	var history []StatusChange
	for rows.Next() {
		var h StatusChange
		if err := rows.Scan(&h.ID, &h.SetID, &h.OldStatus, &h.NewStatus, &h.ActorID, &h.Notes, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (s *pipelineService) TransitionStatus(ctx context.Context, setID int, target SetStatus, actorID int, notes string) (*Set, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := transitionSetTx(ctx, tx, setID, target, actorID, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}
	return s.GetSet(ctx, setID)
}

func (s *pipelineService) RegisterFollowUp(ctx context.Context, setID int, followUpDate time.Time, notes string, actorID int) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	if followUpDate.IsZero() {
		return &ValidationError{Msg: "follow-up date is required"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Transition first: it locks the set row and rejects terminal states
	// before the deal row is written.
	if _, err := transitionSetTx(ctx, tx, setID, StatusSeguimiento, actorID, notes); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO deals (set_id, outcome, follow_up_date, reason)
		VALUES ($1, $2, $3, $4)
	`, setID, OutcomeFollowUp, followUpDate, notes); err != nil {
		return fmt.Errorf("failed to insert follow-up outcome for set %d: %w", setID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit follow-up: %w", err)
	}
	return nil
}

func (s *pipelineService) RegisterDisqualification(ctx context.Context, setID int, reason string, actorID int) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := transitionSetTx(ctx, tx, setID, StatusDescalificado, actorID, reason); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO deals (set_id, outcome, reason)
		VALUES ($1, $2, $3)
	`, setID, OutcomeDescalificado, reason); err != nil {
		return fmt.Errorf("failed to insert disqualification outcome for set %d: %w", setID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit disqualification: %w", err)
	}
	return nil
}

// transitionSetTx applies one guarded status transition inside an existing
// transaction. It locks the set row, validates the move against the
// transition table, performs a status-conditional UPDATE (so a writer racing
// outside this lock still cannot slip through), and appends the history and
// activity rows. Returns the status the set held before the move.
func transitionSetTx(ctx context.Context, tx pgx.Tx, setID int, target SetStatus, actorID int, notes string) (SetStatus, error) {
	if !ValidStatus(target) {
		return "", &ValidationError{Msg: fmt.Sprintf("unknown status %q", target)}
	}

	var current SetStatus
	err := tx.QueryRow(ctx, "SELECT status FROM sets WHERE id = $1 FOR UPDATE", setID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &NotFoundError{Entity: "set", ID: setID}
		}
		return "", fmt.Errorf("failed to fetch set %d: %w", setID, err)
	}

	if !CanTransition(current, target) {
		return "", &InvalidTransitionError{SetID: setID, From: current, To: target}
	}

	ct, err := tx.Exec(ctx,
		"UPDATE sets SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		target, setID, current,
	)
	if err != nil {
		return "", fmt.Errorf("failed to update status of set %d: %w", setID, err)
	}
	if ct.RowsAffected() == 0 {
		return "", &ConflictError{SetID: setID, Expected: current}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO set_status_history (set_id, old_status, new_status, actor_id, notes)
		VALUES ($1, $2, $3, $4, $5)
	`, setID, current, target, actorID, notes); err != nil {
		return "", fmt.Errorf("failed to append status history for set %d: %w", setID, err)
	}

	if err := logActivityTx(ctx, tx, actorID, "status_changed", "set", setID,
		fmt.Sprintf("%s → %s", current, target)); err != nil {
		return "", err
	}

	return current, nil
}

// logActivityTx appends one activity-log row inside an existing transaction.
func logActivityTx(ctx context.Context, tx pgx.Tx, actorID int, action, entityType string, entityID int, detail string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO activity_log (actor_id, action, entity_type, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)
	`, actorID, action, entityType, entityID, detail); err != nil {
		return fmt.Errorf("failed to append activity log: %w", err)
	}
	return nil
}
