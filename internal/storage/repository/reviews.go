package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// CreateReview вставляет новый отзыв и возвращает его ID.
func (s *Storage) CreateReview(ctx context.Context, review models.Review) (int, error) {
	const op = "storage.CreateReview"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO reviews (comercio_id, usuario_uid, usuario_nombre, comentario, rating)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		review.ComercioID, review.UsuarioUID, review.UsuarioNombre,
		review.Comentario, review.Rating).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListReviewsByComercio возвращает отзывы публикации, новые первыми.
func (s *Storage) ListReviewsByComercio(ctx context.Context, comercioID string) ([]*models.Review, error) {
	const op = "storage.ListReviewsByComercio"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, comercio_id, usuario_uid, usuario_nombre, comentario, rating, created_at
			  FROM reviews
			  WHERE comercio_id = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, comercioID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.ComercioID, &r.UsuarioUID, &r.UsuarioNombre,
			&r.Comentario, &r.Rating, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAllReviews возвращает отзывы всех публикаций для сборки агрегатов каталога.
func (s *Storage) ListAllReviews(ctx context.Context) ([]*models.Review, error) {
	const op = "storage.ListAllReviews"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, comercio_id, usuario_uid, usuario_nombre, comentario, rating, created_at
			  FROM reviews
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.ComercioID, &r.UsuarioUID, &r.UsuarioNombre,
			&r.Comentario, &r.Rating, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
