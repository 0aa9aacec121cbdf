package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// RegisterProfile сохраняет новый профиль в базу данных и возвращает его UID.
func (s *Storage) RegisterProfile(ctx context.Context, profile models.Profile) (string, error) {
	const op = "storage.RegisterProfile"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO profiles (email, nombre, telefono, password_hash, is_admin, plan_id)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		profile.Email, profile.Nombre, profile.Telefono, profile.PasswordHash,
		profile.IsAdmin, profile.PlanID).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetProfileByEmail возвращает профиль по email.
func (s *Storage) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	const op = "storage.GetProfileByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, nombre, telefono, password_hash, is_admin,
			      plan_id, plan_expires_at
			  FROM profiles
			  WHERE email = $1`
	return s.scanProfile(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetProfile возвращает профиль по его UID.
func (s *Storage) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, nombre, telefono, password_hash, is_admin,
			      plan_id, plan_expires_at
			  FROM profiles
			  WHERE uid = $1`
	return s.scanProfile(s.DB.QueryRowContext(ctx, query, userUID), op)
}

func (s *Storage) scanProfile(row *sql.Row, op string) (*models.Profile, error) {
	p := &models.Profile{}
	var planExpiresAt sql.NullTime
	if err := row.Scan(&p.UID, &p.Email, &p.Nombre, &p.Telefono, &p.PasswordHash,
		&p.IsAdmin, &p.PlanID, &planExpiresAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if planExpiresAt.Valid {
		p.PlanExpiresAt = &planExpiresAt.Time
	}
	return p, nil
}

// UpdateProfile обновляет имя и телефон профиля и возвращает количество изменённых строк.
func (s *Storage) UpdateProfile(ctx context.Context, userUID, nombre, telefono string) (int, error) {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE profiles
			  SET nombre = $1, telefono = $2
			  WHERE uid = $3`
	result, err := s.DB.ExecContext(ctx, query, nombre, telefono, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// SetPlan устанавливает профилю план и дату его окончания.
func (s *Storage) SetPlan(ctx context.Context, userUID, planID string, expiresAt *time.Time) error {
	const op = "storage.SetPlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE profiles
			  SET plan_id = $1, plan_expires_at = $2
			  WHERE uid = $3`
	var expiry sql.NullTime
	if expiresAt != nil {
		expiry = sql.NullTime{Time: *expiresAt, Valid: true}
	}
	_, err := s.DB.ExecContext(ctx, query, planID, expiry, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListProfiles возвращает список всех профилей с пагинацией.
func (s *Storage) ListProfiles(ctx context.Context, limit, offset int) ([]*models.Profile, error) {
	const op = "storage.ListProfiles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, nombre, telefono, password_hash, is_admin,
			      plan_id, plan_expires_at
			  FROM profiles
			  ORDER BY email
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Profile
	for rows.Next() {
		var p models.Profile
		var planExpiresAt sql.NullTime
		if err := rows.Scan(&p.UID, &p.Email, &p.Nombre, &p.Telefono, &p.PasswordHash,
			&p.IsAdmin, &p.PlanID, &planExpiresAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if planExpiresAt.Valid {
			p.PlanExpiresAt = &planExpiresAt.Time
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindExpiredPlans находит профили с платным планом, срок которого уже истёк.
func (s *Storage) FindExpiredPlans(ctx context.Context) ([]*models.Profile, error) {
	const op = "storage.FindExpiredPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, nombre, telefono, password_hash, is_admin,
			      plan_id, plan_expires_at
			  FROM profiles
			  WHERE plan_id <> $1
			    AND plan_expires_at IS NOT NULL
			    AND plan_expires_at < NOW()`
	rows, err := s.DB.QueryContext(ctx, query, models.FreePlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Profile
	for rows.Next() {
		var p models.Profile
		var planExpiresAt sql.NullTime
		if err := rows.Scan(&p.UID, &p.Email, &p.Nombre, &p.Telefono, &p.PasswordHash,
			&p.IsAdmin, &p.PlanID, &planExpiresAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if planExpiresAt.Valid {
			p.PlanExpiresAt = &planExpiresAt.Time
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindPlansExpiringTomorrow находит профили, платный план которых истекает завтра.
func (s *Storage) FindPlansExpiringTomorrow(ctx context.Context) ([]*models.Profile, error) {
	const op = "storage.FindPlansExpiringTomorrow"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, nombre, telefono, password_hash, is_admin,
			      plan_id, plan_expires_at
			  FROM profiles
			  WHERE plan_id <> $1
			    AND plan_expires_at::DATE = CURRENT_DATE + INTERVAL '1 day'`
	rows, err := s.DB.QueryContext(ctx, query, models.FreePlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Profile
	for rows.Next() {
		var p models.Profile
		var planExpiresAt sql.NullTime
		if err := rows.Scan(&p.UID, &p.Email, &p.Nombre, &p.Telefono, &p.PasswordHash,
			&p.IsAdmin, &p.PlanID, &planExpiresAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if planExpiresAt.Valid {
			p.PlanExpiresAt = &planExpiresAt.Time
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
