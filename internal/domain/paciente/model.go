package paciente

import "time"

// Paciente maps to the paciente table. FechaNacimiento travels as a plain
// "YYYY-MM-DD" string.
type Paciente struct {
	IDPaciente      int64     `db:"id_paciente" json:"id_paciente"`
	Nombre          string    `db:"nombre" json:"nombre"`
	Apellidos       string    `db:"apellidos" json:"apellidos"`
	FechaNacimiento *string   `db:"fecha_nacimiento" json:"fecha_nacimiento"`
	Telefono        *string   `db:"telefono" json:"telefono"`
	Email           *string   `db:"email" json:"email"`
	CanalPreferente *string   `db:"canal_preferente" json:"canal_preferente"`
	FechaRegistro   time.Time `db:"fecha_registro" json:"fecha_registro"`
}

// CrearPacienteInput is the create payload.
type CrearPacienteInput struct {
	Nombre          string  `json:"nombre"`
	Apellidos       string  `json:"apellidos"`
	FechaNacimiento *string `json:"fecha_nacimiento"`
	Telefono        *string `json:"telefono"`
	Email           *string `json:"email"`
	CanalPreferente *string `json:"canal_preferente"`
}

// ActualizarPacienteInput is the partial-update payload. Nil means the field
// was not sent.
type ActualizarPacienteInput struct {
	Nombre          *string `json:"nombre"`
	Apellidos       *string `json:"apellidos"`
	FechaNacimiento *string `json:"fecha_nacimiento"`
	Telefono        *string `json:"telefono"`
	Email           *string `json:"email"`
	CanalPreferente *string `json:"canal_preferente"`
}

func (in ActualizarPacienteInput) empty() bool {
	return in.Nombre == nil && in.Apellidos == nil && in.FechaNacimiento == nil &&
		in.Telefono == nil && in.Email == nil && in.CanalPreferente == nil
}

// ListFilter narrows the patient listing.
type ListFilter struct {
	Q               string
	CanalPreferente string
}

// ListResult is the paginated listing response.
type ListResult struct {
	Total     int         `json:"total"`
	Page      int         `json:"page"`
	PageSize  int         `json:"pageSize"`
	Pacientes []*Paciente `json:"pacientes"`
}
