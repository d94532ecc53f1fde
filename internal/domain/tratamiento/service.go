package tratamiento

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sigcd/gestion-citas/internal/integration/caja"
	"github.com/sigcd/gestion-citas/internal/platform/apperr"
)

// cajaSyncer pushes catalog entries to the Caja service.
type cajaSyncer interface {
	SincronizarTratamiento(ctx context.Context, t caja.TratamientoSync) error
}

// dispatcher queues best-effort work to run after the request finishes.
type dispatcher interface {
	Enqueue(name string, run func(ctx context.Context) error) bool
}

type Service struct {
	repo   Repository
	caja   cajaSyncer
	outbox dispatcher
	logger zerolog.Logger
}

func NewService(repo Repository, cajaClient cajaSyncer, outbox dispatcher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, caja: cajaClient, outbox: outbox, logger: logger}
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Tratamiento, int, error) {
	items, total, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Tratamiento, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if t == nil {
		return nil, apperr.NotFound("Tratamiento no encontrado")
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, in CrearTratamientoInput) (*Tratamiento, error) {
	if in.CveTrat == "" || in.Nombre == "" {
		return nil, apperr.Validation("cve_trat y nombre son obligatorios")
	}
	if in.PrecioBase <= 0 {
		return nil, apperr.Validation("precio_base debe ser un número mayor que 0")
	}
	if in.DuracionMin != nil && *in.DuracionMin < 0 {
		return nil, apperr.Validation("duracion_min debe ser un entero mayor o igual a 0")
	}

	t := &Tratamiento{
		CveTrat:     in.CveTrat,
		Nombre:      in.Nombre,
		Descripcion: in.Descripcion,
		PrecioBase:  in.PrecioBase,
		DuracionMin: in.DuracionMin,
		Activo:      true,
	}
	if in.Activo != nil {
		t.Activo = *in.Activo
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, apperr.Internal(err)
	}

	// Catalog sync with Caja is best-effort and must never fail the create.
	if s.caja != nil && s.outbox != nil {
		sync := caja.TratamientoSync{
			CveTrat:     t.CveTrat,
			Nombre:      t.Nombre,
			Descripcion: t.Descripcion,
			PrecioBase:  t.PrecioBase,
			DuracionMin: t.DuracionMin,
		}
		if !s.outbox.Enqueue("caja.sync-tratamiento", func(ctx context.Context) error {
			return s.caja.SincronizarTratamiento(ctx, sync)
		}) {
			s.logger.Warn().Str("cve_trat", t.CveTrat).Msg("cola de salida llena; no se sincronizó el tratamiento con Caja")
		}
	}

	return t, nil
}
