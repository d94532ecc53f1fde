package medico

// Medico maps to the medico table.
type Medico struct {
	IDMedico          int64   `db:"id_medico" json:"id_medico"`
	Nombre            string  `db:"nombre" json:"nombre"`
	Apellidos         string  `db:"apellidos" json:"apellidos"`
	Especialidad      *string `db:"especialidad" json:"especialidad"`
	CedulaProfesional *string `db:"cedula_profesional" json:"cedula_profesional"`
	Activo            bool    `db:"activo" json:"activo"`
}

// CrearMedicoInput is the create payload. Activo defaults to true when
// omitted.
type CrearMedicoInput struct {
	Nombre            string  `json:"nombre"`
	Apellidos         string  `json:"apellidos"`
	Especialidad      *string `json:"especialidad"`
	CedulaProfesional *string `json:"cedula_profesional"`
	Activo            *bool   `json:"activo"`
}
