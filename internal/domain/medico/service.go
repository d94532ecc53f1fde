package medico

import (
	"context"

	"github.com/sigcd/gestion-citas/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*Medico, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Medico, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if m == nil {
		return nil, apperr.NotFound("Médico no encontrado")
	}
	return m, nil
}

func (s *Service) Create(ctx context.Context, in CrearMedicoInput) (*Medico, error) {
	if in.Nombre == "" || in.Apellidos == "" {
		return nil, apperr.Validation("nombre y apellidos son obligatorios")
	}
	m := &Medico{
		Nombre:            in.Nombre,
		Apellidos:         in.Apellidos,
		Especialidad:      in.Especialidad,
		CedulaProfesional: in.CedulaProfesional,
		Activo:            true,
	}
	if in.Activo != nil {
		m.Activo = *in.Activo
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, apperr.Internal(err)
	}
	return m, nil
}
