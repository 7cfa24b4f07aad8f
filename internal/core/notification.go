package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notifier delivers in-app notifications. NotifyTx writes inside the caller's
// transaction so a rolled-back workflow never leaves a stray notification.
type Notifier interface {
	NotifyTx(ctx context.Context, tx pgx.Tx, teamMemberID int, message string) error
}

// NotificationService is the read/settle side of the notification table.
type NotificationService interface {
	Notifier
	ListNotifications(ctx context.Context, teamMemberID int, unreadOnly bool) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID int) error
}

type notificationService struct {
	pool *pgxpool.Pool
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(pool *pgxpool.Pool) NotificationService {
	return &notificationService{pool: pool}
}

func (s *notificationService) NotifyTx(ctx context.Context, tx pgx.Tx, teamMemberID int, message string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO notifications (team_member_id, message)
		VALUES ($1, $2)
	`, teamMemberID, message); err != nil {
		return fmt.Errorf("failed to insert notification for member %d: %w", teamMemberID, err)
	}
	return nil
}

func (s *notificationService) ListNotifications(ctx context.Context, teamMemberID int, unreadOnly bool) ([]Notification, error) {
	query := `
		SELECT id, team_member_id, message, is_read, created_at
		FROM notifications
		WHERE team_member_id = $1`
	if unreadOnly {
		query += " AND is_read = FALSE"
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, teamMemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications for member %d: %w", teamMemberID, err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.TeamMemberID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *notificationService) MarkNotificationRead(ctx context.Context, notificationID int) error {
	ct, err := s.pool.Exec(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = $1", notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", notificationID, err)
	}
	if ct.RowsAffected() == 0 {
		return &NotFoundError{Entity: "notification", ID: notificationID}
	}
	return nil
}
