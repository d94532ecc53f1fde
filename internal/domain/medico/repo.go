package medico

import "context"

// Repository is the persistence boundary for medico records. Lookups return
// (nil, nil) when no row matches.
type Repository interface {
	List(ctx context.Context) ([]*Medico, error)
	GetByID(ctx context.Context, id int64) (*Medico, error)
	Create(ctx context.Context, m *Medico) error
}
