package models

import "time"

// Comercio представляет публикацию комерса в каталоге.
type Comercio struct {
	ID           string    `json:"id"`
	Nombre       string    `json:"nombre"`
	Slug         string    `json:"slug"` // Для SEO: /mi-comercio-ideal
	ImagenURL    string    `json:"imagen_url"`
	Imagenes     []string  `json:"imagenes"`
	RubroID      string    `json:"rubro_id"`
	SubRubroID   string    `json:"sub_rubro_id"`
	CiudadID     string    `json:"ciudad_id"`
	UsuarioUID   string    `json:"usuario_uid"`
	Whatsapp     string    `json:"whatsapp"`
	Descripcion  string    `json:"descripcion"`
	Direccion    string    `json:"direccion"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	IsVerified   bool      `json:"is_verified"`
	IsWaVerified bool      `json:"is_wa_verified"`
	CreatedAt    time.Time `json:"created_at"`

	// Агрегаты, заполняются при сборке справочных данных.
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"review_count"`
	Reviews     []*Review `json:"reviews,omitempty"`
	Plan        *Plan     `json:"plan,omitempty"` // План владельца, влияет на приоритет и чат
}

// Review представляет отзыв клиента о комерсе.
type Review struct {
	ID            int       `json:"id"`
	ComercioID    string    `json:"comercio_id"`
	UsuarioUID    string    `json:"usuario_uid"`
	UsuarioNombre string    `json:"usuario_nombre"`
	Comentario    string    `json:"comentario"`
	Rating        int       `json:"rating"`
	CreatedAt     time.Time `json:"created_at"`
}

// DummyComercio используется для приёма данных публикации из JSON-запроса.
type DummyComercio struct {
	Nombre      string   `json:"nombre" validate:"required"`
	ImagenURL   string   `json:"imagen_url"`
	Imagenes    []string `json:"imagenes"`
	RubroID     string   `json:"rubro_id" validate:"required"`
	SubRubroID  string   `json:"sub_rubro_id" validate:"required"`
	CiudadID    string   `json:"ciudad_id" validate:"required"`
	Whatsapp    string   `json:"whatsapp" validate:"required"`
	Descripcion string   `json:"descripcion"`
	Direccion   string   `json:"direccion"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// DummyReview используется для приёма отзыва из JSON-запроса.
type DummyReview struct {
	ComercioID string `json:"comercio_id" validate:"required,uuid"`
	Comentario string `json:"comentario" validate:"required"`
	Rating     int    `json:"rating" validate:"required,gte=1,lte=5"`
}
