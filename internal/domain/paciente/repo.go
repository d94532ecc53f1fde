package paciente

import "context"

// Repository is the persistence boundary for paciente records. GetByID
// returns (nil, nil) when no row matches; Update reports the number of rows
// touched.
type Repository interface {
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Paciente, int, error)
	GetByID(ctx context.Context, id int64) (*Paciente, error)
	Create(ctx context.Context, p *Paciente) error
	Update(ctx context.Context, id int64, in ActualizarPacienteInput) (int64, error)
}
