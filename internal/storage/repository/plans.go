package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// GetPlan возвращает тариф по его идентификатору.
func (s *Storage) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, nombre, precio, limite_imagenes, limite_publicaciones,
			      tiene_prioridad, tiene_chat
			  FROM subscription_plans
			  WHERE id = $1`
	p := &models.Plan{}
	row := s.DB.QueryRowContext(ctx, query, planID)
	if err := row.Scan(&p.ID, &p.Nombre, &p.Precio, &p.LimiteImagenes,
		&p.LimitePublicaciones, &p.TienePrioridad, &p.TieneChat); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPlans возвращает все тарифы, отсортированные по цене.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, nombre, precio, limite_imagenes, limite_publicaciones,
			      tiene_prioridad, tiene_chat
			  FROM subscription_plans
			  ORDER BY precio`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Precio, &p.LimiteImagenes,
			&p.LimitePublicaciones, &p.TienePrioridad, &p.TieneChat); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
