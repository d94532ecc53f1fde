package paciente

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/sigcd/gestion-citas/internal/integration/caja"
	"github.com/sigcd/gestion-citas/internal/integration/clinica"
	"github.com/sigcd/gestion-citas/internal/platform/apperr"
)

// cajaClient is the slice of the Caja API the patient module needs.
type cajaClient interface {
	RegistrarPaciente(ctx context.Context, p caja.PacienteSync) error
	ObtenerSaldoPaciente(ctx context.Context, idPaciente int64) (json.RawMessage, error)
}

// clinicaClient mirrors patient records to Atención Clínica.
type clinicaClient interface {
	SincronizarPaciente(ctx context.Context, p clinica.PacienteSync) error
}

type dispatcher interface {
	Enqueue(name string, run func(ctx context.Context) error) bool
}

type Service struct {
	repo    Repository
	caja    cajaClient
	clinica clinicaClient
	outbox  dispatcher
	logger  zerolog.Logger
}

func NewService(repo Repository, cajaAPI cajaClient, clinicaAPI clinicaClient, outbox dispatcher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, caja: cajaAPI, clinica: clinicaAPI, outbox: outbox, logger: logger}
}

func (s *Service) List(ctx context.Context, filter ListFilter, page, pageSize int) (*ListResult, error) {
	items, total, err := s.repo.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if items == nil {
		items = []*Paciente{}
	}
	return &ListResult{Total: total, Page: page, PageSize: pageSize, Pacientes: items}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Paciente, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil {
		return nil, apperr.NotFound("Paciente no encontrado")
	}
	return p, nil
}

// Create inserts the patient and mirrors it to Atención Clínica and Caja.
// Both syncs run through the outbox and never fail the create.
func (s *Service) Create(ctx context.Context, in CrearPacienteInput) (*Paciente, error) {
	if in.Nombre == "" || in.Apellidos == "" {
		return nil, apperr.Validation("nombre y apellidos son obligatorios")
	}

	p := &Paciente{
		Nombre:          in.Nombre,
		Apellidos:       in.Apellidos,
		FechaNacimiento: in.FechaNacimiento,
		Telefono:        in.Telefono,
		Email:           in.Email,
		CanalPreferente: in.CanalPreferente,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}

	s.enqueueSync(p)
	return p, nil
}

func (s *Service) enqueueSync(p *Paciente) {
	if s.outbox == nil {
		return
	}
	if s.clinica != nil {
		sync := clinica.PacienteSync{
			IDPaciente:      p.IDPaciente,
			Nombre:          p.Nombre,
			Apellidos:       p.Apellidos,
			FechaNacimiento: p.FechaNacimiento,
			Telefono:        p.Telefono,
			Correo:          p.Email,
		}
		if !s.outbox.Enqueue("clinica.sync-paciente", func(ctx context.Context) error {
			return s.clinica.SincronizarPaciente(ctx, sync)
		}) {
			s.logger.Warn().Int64("id_paciente", p.IDPaciente).Msg("cola de salida llena; no se sincronizó el paciente con Atención Clínica")
		}
	}
	if s.caja != nil {
		sync := caja.PacienteSync{
			Nombre:    p.Nombre,
			Apellido:  p.Apellidos,
			FechaNac:  p.FechaNacimiento,
			Direccion: "SIN_DIRECCION",
			Correo:    p.Email,
		}
		if !s.outbox.Enqueue("caja.registrar-paciente", func(ctx context.Context) error {
			return s.caja.RegistrarPaciente(ctx, sync)
		}) {
			s.logger.Warn().Int64("id_paciente", p.IDPaciente).Msg("cola de salida llena; no se registró el paciente en Caja")
		}
	}
}

func (s *Service) Update(ctx context.Context, id int64, in ActualizarPacienteInput) error {
	if in.empty() {
		return apperr.Validation("Debe enviarse al menos un campo para actualizar al paciente")
	}
	rows, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return apperr.Internal(err)
	}
	if rows == 0 {
		return apperr.NotFound("Paciente no encontrado")
	}
	return nil
}

// SaldoCaja proxies the patient balance from Caja. Unlike the syncs this is
// a blocking call; failures surface to the client.
func (s *Service) SaldoCaja(ctx context.Context, id int64) (json.RawMessage, error) {
	if s.caja == nil {
		return nil, apperr.Integration("No se pudo obtener el saldo desde Caja", 0, nil)
	}
	raw, err := s.caja.ObtenerSaldoPaciente(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("id_paciente", id).Msg("error consultando saldo en Caja")
		return nil, err
	}
	return raw, nil
}
