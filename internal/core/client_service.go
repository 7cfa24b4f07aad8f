package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validClientStatuses = map[ClientStatus]bool{
	ClientOnboarding: true,
	ClientActivo:     true,
	ClientPausado:    true,
	ClientCompletado: true,
}

var validPhaseStatuses = map[PhaseStatus]bool{
	PhasePendiente:  true,
	PhaseEnProgreso: true,
	PhaseCompletado: true,
}

// ClientService covers delivery tracking for converted clients: lifecycle
// status, the onboarding checklist and the 90-day phase schedule.
type ClientService interface {
	GetClient(ctx context.Context, clientID int) (*Client, error)
	ListClients(ctx context.Context, status *ClientStatus) ([]Client, error)
	UpdateClientStatus(ctx context.Context, clientID int, status ClientStatus, actorID int) (*Client, error)
	AssignClient(ctx context.Context, clientID int, teamMemberID int, actorID int) error

	ListOnboardingItems(ctx context.Context, clientID int) ([]OnboardingItem, error)
	SetOnboardingItemDone(ctx context.Context, itemID int, done bool, actorID int) error

	ListProgramPhases(ctx context.Context, clientID int) ([]ProgramPhase, error)
	UpdatePhaseStatus(ctx context.Context, phaseID int, status PhaseStatus, actorID int) error
}

type clientService struct {
	pool *pgxpool.Pool
}

// NewClientService constructs a ClientService.
func NewClientService(pool *pgxpool.Pool) ClientService {
	return &clientService{pool: pool}
}

const clientColumns = `id, set_id, deal_id, name, COALESCE(email, ''), COALESCE(phone, ''),
	service, status, assigned_to_id, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.SetID, &c.DealID, &c.Name, &c.Email, &c.Phone,
		&c.Service, &c.Status, &c.AssignedToID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *clientService) GetClient(ctx context.Context, clientID int) (*Client, error) {
	c, err := scanClient(s.pool.QueryRow(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = $1", clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "client", ID: clientID}
		}
		return nil, fmt.Errorf("failed to fetch client %d: %w", clientID, err)
	}
	return c, nil
}

func (s *clientService) ListClients(ctx context.Context, status *ClientStatus) ([]Client, error) {
	query := "SELECT " + clientColumns + " FROM clients"
	args := []any{}
	if status != nil {
		if !validClientStatuses[*status] {
			return nil, &ValidationError{Msg: fmt.Sprintf("unknown client status %q", *status)}
		}
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

func (s *clientService) UpdateClientStatus(ctx context.Context, clientID int, status ClientStatus, actorID int) (*Client, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if !validClientStatuses[status] {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown client status %q", status)}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := scanClient(tx.QueryRow(ctx, `
		UPDATE clients SET status = $1, updated_at = NOW() WHERE id = $2
		RETURNING `+clientColumns, status, clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "client", ID: clientID}
		}
		return nil, fmt.Errorf("failed to update client %d: %w", clientID, err)
	}

	if err := logActivityTx(ctx, tx, actorID, "client_status_changed", "client", clientID, string(status)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit client update: %w", err)
	}
	return c, nil
}

func (s *clientService) AssignClient(ctx context.Context, clientID int, teamMemberID int, actorID int) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	ct, err := s.pool.Exec(ctx,
		"UPDATE clients SET assigned_to_id = $1, updated_at = NOW() WHERE id = $2",
		teamMemberID, clientID)
	if err != nil {
		return fmt.Errorf("failed to assign client %d: %w", clientID, err)
	}
	if ct.RowsAffected() == 0 {
		return &NotFoundError{Entity: "client", ID: clientID}
	}
	return nil
}

func (s *clientService) ListOnboardingItems(ctx context.Context, clientID int) ([]OnboardingItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, label, position, is_done
		FROM onboarding_items WHERE client_id = $1 ORDER BY position ASC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query onboarding items for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var items []OnboardingItem
	for rows.Next() {
		var it OnboardingItem
		if err := rows.Scan(&it.ID, &it.ClientID, &it.Label, &it.Position, &it.IsDone); err != nil {
			return nil, fmt.Errorf("failed to scan onboarding item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *clientService) SetOnboardingItemDone(ctx context.Context, itemID int, done bool, actorID int) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	ct, err := s.pool.Exec(ctx,
		"UPDATE onboarding_items SET is_done = $1 WHERE id = $2", done, itemID)
	if err != nil {
		return fmt.Errorf("failed to update onboarding item %d: %w", itemID, err)
	}
	if ct.RowsAffected() == 0 {
		return &NotFoundError{Entity: "onboarding item", ID: itemID}
	}
	return nil
}

func (s *clientService) ListProgramPhases(ctx context.Context, clientID int) ([]ProgramPhase, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, phase_number, name, start_day, end_day, start_date, end_date, status
		FROM program_phases WHERE client_id = $1 ORDER BY phase_number ASC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query phases for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var phases []ProgramPhase
	for rows.Next() {
		var ph ProgramPhase
		if err := rows.Scan(&ph.ID, &ph.ClientID, &ph.PhaseNumber, &ph.Name,
			&ph.StartDay, &ph.EndDay, &ph.StartDate, &ph.EndDate, &ph.Status); err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		phases = append(phases, ph)
	}
	return phases, rows.Err()
}

func (s *clientService) UpdatePhaseStatus(ctx context.Context, phaseID int, status PhaseStatus, actorID int) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	if !validPhaseStatuses[status] {
		return &ValidationError{Msg: fmt.Sprintf("unknown phase status %q", status)}
	}

	ct, err := s.pool.Exec(ctx,
		"UPDATE program_phases SET status = $1 WHERE id = $2", status, phaseID)
	if err != nil {
		return fmt.Errorf("failed to update phase %d: %w", phaseID, err)
	}
	if ct.RowsAffected() == 0 {
		return &NotFoundError{Entity: "program phase", ID: phaseID}
	}
	return nil
}
