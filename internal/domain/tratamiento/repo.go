package tratamiento

import "context"

// Repository is the persistence boundary for the treatment catalog. Lookups
// return (nil, nil) when no row matches.
type Repository interface {
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Tratamiento, int, error)
	GetByID(ctx context.Context, id int64) (*Tratamiento, error)
	Create(ctx context.Context, t *Tratamiento) error
}
