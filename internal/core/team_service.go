package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var validRoles = map[string]bool{
	"admin":  true,
	"setter": true,
	"closer": true,
}

// CreateTeamMemberInput is the intake form for a new team member.
type CreateTeamMemberInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
	ActorID   int
}

// TeamService is the directory of agency team members. Passwords are stored
// as bcrypt hashes and never leave this package in plain form.
type TeamService interface {
	CreateTeamMember(ctx context.Context, in CreateTeamMemberInput) (*TeamMember, error)
	GetTeamMember(ctx context.Context, memberID int) (*TeamMember, error)
	GetTeamMemberByEmail(ctx context.Context, email string) (*TeamMember, error)
	ListTeamMembers(ctx context.Context, activeOnly bool) ([]TeamMember, error)
	SetTeamMemberActive(ctx context.Context, memberID int, active bool, actorID int) error

	// VerifyPassword checks a candidate password against a member's stored hash.
	VerifyPassword(member *TeamMember, password string) bool
}

type teamService struct {
	pool *pgxpool.Pool
}

// NewTeamService constructs a TeamService.
func NewTeamService(pool *pgxpool.Pool) TeamService {
	return &teamService{pool: pool}
}

const teamMemberColumns = `id, first_name, last_name, email, password_hash, role, is_active, created_at`

func scanTeamMember(row pgx.Row) (*TeamMember, error) {
	var m TeamMember
	err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.PasswordHash, &m.Role, &m.IsActive, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *teamService) CreateTeamMember(ctx context.Context, in CreateTeamMemberInput) (*TeamMember, error) {
	if err := requireActor(in.ActorID); err != nil {
		return nil, err
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, &ValidationError{Msg: "first and last name are required"}
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return nil, &ValidationError{Msg: "email is required"}
	}
	if len(in.Password) < 8 {
		return nil, &ValidationError{Msg: "password must be at least 8 characters"}
	}
	if !validRoles[in.Role] {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown role %q", in.Role)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	m, err := scanTeamMember(s.pool.QueryRow(ctx, `
		INSERT INTO team_members (first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+teamMemberColumns,
		in.FirstName, in.LastName, in.Email, string(hash), in.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to insert team member: %w", err)
	}
	return m, nil
}

func (s *teamService) GetTeamMember(ctx context.Context, memberID int) (*TeamMember, error) {
	m, err := scanTeamMember(s.pool.QueryRow(ctx,
		"SELECT "+teamMemberColumns+" FROM team_members WHERE id = $1", memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "team member", ID: memberID}
		}
		return nil, fmt.Errorf("failed to fetch team member %d: %w", memberID, err)
	}
	return m, nil
}

func (s *teamService) GetTeamMemberByEmail(ctx context.Context, email string) (*TeamMember, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m, err := scanTeamMember(s.pool.QueryRow(ctx,
		"SELECT "+teamMemberColumns+" FROM team_members WHERE email = $1", email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "team member", ID: 0}
		}
		return nil, fmt.Errorf("failed to fetch team member %s: %w", email, err)
	}
	return m, nil
}

func (s *teamService) ListTeamMembers(ctx context.Context, activeOnly bool) ([]TeamMember, error) {
	query := "SELECT " + teamMemberColumns + " FROM team_members"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY id ASC"

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	var members []TeamMember
	for rows.Next() {
		m, err := scanTeamMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *teamService) SetTeamMemberActive(ctx context.Context, memberID int, active bool, actorID int) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	ct, err := s.pool.Exec(ctx,
		"UPDATE team_members SET is_active = $1 WHERE id = $2", active, memberID)
	if err != nil {
		return fmt.Errorf("failed to update team member %d: %w", memberID, err)
	}
	if ct.RowsAffected() == 0 {
		return &NotFoundError{Entity: "team member", ID: memberID}
	}
	return nil
}

func (s *teamService) VerifyPassword(member *TeamMember, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)) == nil
}
