package models

// Provincia представляет провинцию в справочнике локаций.
type Provincia struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

// Ciudad представляет город, привязанный к провинции.
type Ciudad struct {
	ID          string   `json:"id"`
	Nombre      string   `json:"nombre"`
	ProvinciaID string   `json:"provincia_id"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
}

// Rubro представляет категорию комерсов.
type Rubro struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Icon   string `json:"icon"`
	Slug   string `json:"slug"` // Для SEO: /gastronomia
}

// SubRubro представляет подкатегорию внутри рубрики.
type SubRubro struct {
	ID      string `json:"id"`
	RubroID string `json:"rubro_id"`
	Nombre  string `json:"nombre"`
	Slug    string `json:"slug"` // Для SEO: /gastronomia/parrillas
}

// AppData агрегирует публичные справочные данные, которые нужны
// каталогу независимо от состояния аутентификации.
type AppData struct {
	Provincias []*Provincia `json:"provincias"`
	Ciudades   []*Ciudad    `json:"ciudades"`
	Rubros     []*Rubro     `json:"rubros"`
	SubRubros  []*SubRubro  `json:"sub_rubros"`
	Plans      []*Plan      `json:"plans"`
	Comercios  []*Comercio  `json:"comercios"`
}
