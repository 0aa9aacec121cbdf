package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// CreateHistoryEntry вставляет запись истории активаций и возвращает её ID.
// Повторная вставка с тем же payment_id не создаёт дубликата и возвращает 0.
func (s *Storage) CreateHistoryEntry(ctx context.Context, entry models.SubscriptionHistoryEntry) (int, error) {
	const op = "storage.CreateHistoryEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscription_history (user_uid, plan_id, start_date, end_date,
			      amount, payment_id, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (payment_id) WHERE payment_id <> '' DO NOTHING
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		entry.UserUID, entry.PlanID, entry.StartDate, entry.EndDate,
		entry.Amount, entry.PaymentID, entry.Status).Scan(&newID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ExistsHistoryEntryByPaymentID проверяет, была ли уже записана активация
// по данному платежу.
func (s *Storage) ExistsHistoryEntryByPaymentID(ctx context.Context, paymentID string) (bool, error) {
	const op = "storage.ExistsHistoryEntryByPaymentID"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (SELECT 1 FROM subscription_history WHERE payment_id = $1)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, paymentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListHistoryByUser возвращает историю активаций пользователя.
func (s *Storage) ListHistoryByUser(ctx context.Context, userUID string) ([]*models.SubscriptionHistoryEntry, error) {
	const op = "storage.ListHistoryByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_id, start_date, end_date, amount,
			      payment_id, status, created_at
			  FROM subscription_history
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionHistoryEntry
	for rows.Next() {
		var e models.SubscriptionHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserUID, &e.PlanID, &e.StartDate, &e.EndDate,
			&e.Amount, &e.PaymentID, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkHistoryExpired помечает активные записи пользователя как истекшие.
func (s *Storage) MarkHistoryExpired(ctx context.Context, userUID string) error {
	const op = "storage.MarkHistoryExpired"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscription_history
			  SET status = $1
			  WHERE user_uid = $2 AND status = $3`
	_, err := s.DB.ExecContext(ctx, query, models.HistoryStatusExpired, userUID, models.HistoryStatusActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
