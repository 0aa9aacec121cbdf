package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// encodeImagenes сериализует список изображений для jsonb-колонки.
func encodeImagenes(imagenes []string) ([]byte, error) {
	if imagenes == nil {
		imagenes = []string{}
	}
	return json.Marshal(imagenes)
}

// CreateComercio вставляет новую публикацию и возвращает её ID.
func (s *Storage) CreateComercio(ctx context.Context, c models.Comercio) (string, error) {
	const op = "storage.CreateComercio"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO comercios (nombre, slug, imagen_url, imagenes, rubro_id,
			      sub_rubro_id, ciudad_id, usuario_uid, whatsapp, descripcion,
			      direccion, latitude, longitude)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING id`
	imagenes, err := encodeImagenes(c.Imagenes)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	var newID string
	err = s.DB.QueryRowContext(ctx, query,
		c.Nombre, c.Slug, c.ImagenURL, imagenes, c.RubroID, c.SubRubroID,
		c.CiudadID, c.UsuarioUID, c.Whatsapp, c.Descripcion, c.Direccion,
		c.Latitude, c.Longitude).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadComercio возвращает публикацию по её ID.
func (s *Storage) ReadComercio(ctx context.Context, id string) (*models.Comercio, error) {
	const op = "storage.ReadComercio"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, nombre, slug, imagen_url, imagenes, rubro_id, sub_rubro_id,
			      ciudad_id, usuario_uid, whatsapp, descripcion, direccion,
			      latitude, longitude, is_verified, is_wa_verified, created_at
			  FROM comercios
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)
	return scanComercio(row, op)
}

// ReadComercioBySlug возвращает публикацию по её slug.
func (s *Storage) ReadComercioBySlug(ctx context.Context, slug string) (*models.Comercio, error) {
	const op = "storage.ReadComercioBySlug"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, nombre, slug, imagen_url, imagenes, rubro_id, sub_rubro_id,
			      ciudad_id, usuario_uid, whatsapp, descripcion, direccion,
			      latitude, longitude, is_verified, is_wa_verified, created_at
			  FROM comercios
			  WHERE slug = $1`
	row := s.DB.QueryRowContext(ctx, query, slug)
	return scanComercio(row, op)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComercio(row rowScanner, op string) (*models.Comercio, error) {
	var c models.Comercio
	var latitude, longitude sql.NullFloat64
	var imagenes []byte
	if err := row.Scan(&c.ID, &c.Nombre, &c.Slug, &c.ImagenURL, &imagenes,
		&c.RubroID, &c.SubRubroID, &c.CiudadID, &c.UsuarioUID, &c.Whatsapp,
		&c.Descripcion, &c.Direccion, &latitude, &longitude,
		&c.IsVerified, &c.IsWaVerified, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(imagenes) > 0 {
		if err := json.Unmarshal(imagenes, &c.Imagenes); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if latitude.Valid {
		c.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		c.Longitude = &longitude.Float64
	}
	return &c, nil
}

// UpdateComercio обновляет публикацию и возвращает количество изменённых строк.
// Обновление выполняется только для публикаций владельца.
func (s *Storage) UpdateComercio(ctx context.Context, c models.Comercio, id, usuarioUID string) (int, error) {
	const op = "storage.UpdateComercio"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE comercios
			  SET nombre = $1, imagen_url = $2, imagenes = $3, rubro_id = $4,
			      sub_rubro_id = $5, ciudad_id = $6, whatsapp = $7, descripcion = $8,
			      direccion = $9, latitude = $10, longitude = $11
			  WHERE id = $12 AND usuario_uid = $13`
	imagenes, err := encodeImagenes(c.Imagenes)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	result, err := s.DB.ExecContext(ctx, query,
		c.Nombre, c.ImagenURL, imagenes, c.RubroID, c.SubRubroID, c.CiudadID,
		c.Whatsapp, c.Descripcion, c.Direccion, c.Latitude, c.Longitude,
		id, usuarioUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveComercio удаляет публикацию владельца и возвращает количество удалённых строк.
func (s *Storage) RemoveComercio(ctx context.Context, id, usuarioUID string) (int, error) {
	const op = "storage.RemoveComercio"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM comercios WHERE id = $1 AND usuario_uid = $2`
	result, err := s.DB.ExecContext(ctx, query, id, usuarioUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListComercios возвращает все публикации каталога.
func (s *Storage) ListComercios(ctx context.Context) ([]*models.Comercio, error) {
	const op = "storage.ListComercios"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, nombre, slug, imagen_url, imagenes, rubro_id, sub_rubro_id,
			      ciudad_id, usuario_uid, whatsapp, descripcion, direccion,
			      latitude, longitude, is_verified, is_wa_verified, created_at
			  FROM comercios
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Comercio
	for rows.Next() {
		c, err := scanComercio(rows, op)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListComerciosByUser возвращает публикации владельца.
func (s *Storage) ListComerciosByUser(ctx context.Context, usuarioUID string) ([]*models.Comercio, error) {
	const op = "storage.ListComerciosByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, nombre, slug, imagen_url, imagenes, rubro_id, sub_rubro_id,
			      ciudad_id, usuario_uid, whatsapp, descripcion, direccion,
			      latitude, longitude, is_verified, is_wa_verified, created_at
			  FROM comercios
			  WHERE usuario_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, usuarioUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Comercio
	for rows.Next() {
		c, err := scanComercio(rows, op)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountComerciosByUser подсчитывает количество публикаций владельца.
func (s *Storage) CountComerciosByUser(ctx context.Context, usuarioUID string) (int, error) {
	const op = "storage.CountComerciosByUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM comercios WHERE usuario_uid = $1`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, usuarioUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ExistsComercioSlug проверяет занятость slug.
func (s *Storage) ExistsComercioSlug(ctx context.Context, slug string) (bool, error) {
	const op = "storage.ExistsComercioSlug"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (SELECT 1 FROM comercios WHERE slug = $1)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}
