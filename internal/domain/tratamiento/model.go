package tratamiento

// Tratamiento maps to the tratamiento table. PrecioBase is NUMERIC(10,2)
// in the schema and travels as a plain number in JSON.
type Tratamiento struct {
	IDTratamiento int64   `db:"id_tratamiento" json:"id_tratamiento"`
	CveTrat       string  `db:"cve_trat" json:"cve_trat"`
	Nombre        string  `db:"nombre" json:"nombre"`
	Descripcion   *string `db:"descripcion" json:"descripcion"`
	PrecioBase    float64 `db:"precio_base" json:"precio_base"`
	DuracionMin   *int    `db:"duracion_min" json:"duracion_min"`
	Activo        bool    `db:"activo" json:"activo"`
}

// CrearTratamientoInput is the create payload. Activo defaults to true.
type CrearTratamientoInput struct {
	CveTrat     string  `json:"cve_trat"`
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	PrecioBase  float64 `json:"precio_base"`
	DuracionMin *int    `json:"duracion_min"`
	Activo      *bool   `json:"activo"`
}

// ListFilter narrows the treatment listing.
type ListFilter struct {
	Q           string
	SoloActivos bool
}
