package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// ListProvincias возвращает все провинции.
func (s *Storage) ListProvincias(ctx context.Context) ([]*models.Provincia, error) {
	const op = "storage.ListProvincias"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, nombre FROM provincias ORDER BY nombre`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Provincia
	for rows.Next() {
		var p models.Provincia
		if err := rows.Scan(&p.ID, &p.Nombre); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListCiudades возвращает все города.
func (s *Storage) ListCiudades(ctx context.Context) ([]*models.Ciudad, error) {
	const op = "storage.ListCiudades"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, nombre, provincia_id, lat, lng FROM ciudades ORDER BY nombre`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Ciudad
	for rows.Next() {
		var c models.Ciudad
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.Nombre, &c.ProvinciaID, &lat, &lng); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if lat.Valid {
			c.Lat = &lat.Float64
		}
		if lng.Valid {
			c.Lng = &lng.Float64
		}
		result = append(result, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListRubros возвращает все рубрики.
func (s *Storage) ListRubros(ctx context.Context) ([]*models.Rubro, error) {
	const op = "storage.ListRubros"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, nombre, icon, slug FROM rubros ORDER BY nombre`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Rubro
	for rows.Next() {
		var r models.Rubro
		if err := rows.Scan(&r.ID, &r.Nombre, &r.Icon, &r.Slug); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListSubRubros возвращает все подрубрики.
func (s *Storage) ListSubRubros(ctx context.Context) ([]*models.SubRubro, error) {
	const op = "storage.ListSubRubros"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, rubro_id, nombre, slug FROM sub_rubros ORDER BY nombre`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubRubro
	for rows.Next() {
		var sr models.SubRubro
		if err := rows.Scan(&sr.ID, &sr.RubroID, &sr.Nombre, &sr.Slug); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &sr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
