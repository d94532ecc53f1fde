package cita

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/sigcd/gestion-citas/internal/integration/caja"
	"github.com/sigcd/gestion-citas/internal/integration/clinica"
	"github.com/sigcd/gestion-citas/internal/platform/apperr"
	"github.com/sigcd/gestion-citas/internal/platform/db"
)

// Minimum separation between two appointments of the same doctor, applied on
// both sides of the requested slot.
const minGapMinutes = 120

// cajaClient is the slice of the Caja API the appointment module needs.
type cajaClient interface {
	ObtenerSaldoPaciente(ctx context.Context, idPaciente int64) (json.RawMessage, error)
	CrearCobro(ctx context.Context, cobro caja.Cobro) (*caja.CobroResult, error)
}

// clinicaClient notifies the clinical service of new appointments.
type clinicaClient interface {
	NotificarNuevaCita(ctx context.Context, cita clinica.NuevaCita) error
}

type dispatcher interface {
	Enqueue(name string, run func(ctx context.Context) error) bool
}

type Service struct {
	repo    Repository
	tx      db.TxRunner
	caja    cajaClient
	clinica clinicaClient
	outbox  dispatcher
	logger  zerolog.Logger
	minGap  int
	now     func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, cajaAPI cajaClient, clinicaAPI clinicaClient, outbox dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		caja:    cajaAPI,
		clinica: clinicaAPI,
		outbox:  outbox,
		logger:  logger,
		minGap:  minGapMinutes,
		now:     time.Now,
	}
}

// Crear books an appointment and, when a deposit is required, its PENDIENTE
// anticipo, in one transaction. The clinical notification goes through the
// outbox after commit and can never fail the booking.
func (s *Service) Crear(ctx context.Context, in CrearCitaInput) (*ResultadoCrearCita, error) {
	if in.IDPaciente == 0 || in.IDMedico == 0 || in.FechaCita == "" || in.MedioSolicitud == "" {
		return nil, apperr.Validation("id_paciente, id_medico, fecha_cita y medio_solicitud son obligatorios")
	}
	if in.RequiereAnticipo && (in.MontoAnticipo == nil || *in.MontoAnticipo <= 0) {
		return nil, apperr.Validation("monto_anticipo debe ser un número mayor que 0 cuando requiere_anticipo es true")
	}

	fecha, err := ParseFechaHora(in.FechaCita)
	if err != nil {
		return nil, apperr.Validation("fecha_cita no tiene un formato de fecha válido")
	}

	conflictoMedico, err := s.repo.MedicoTieneCitaEnRango(ctx, in.IDMedico, fecha, s.minGap, s.minGap)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if conflictoMedico {
		return nil, apperr.Conflict("El médico ya tiene una cita programada en un rango de 2 horas respecto a la fecha y hora seleccionadas.")
	}

	conflictoPaciente, err := s.repo.PacienteTieneCitaExacta(ctx, in.IDPaciente, fecha)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if conflictoPaciente {
		return nil, apperr.Conflict("El paciente ya tiene una cita registrada exactamente en esa fecha y hora.")
	}

	responsable := in.ResponsableRegistro
	if responsable == "" {
		responsable = "SISTEMA"
	}
	estadoPago := PagoSinPago
	var montoCobro *float64
	if in.RequiereAnticipo {
		estadoPago = PagoPendiente
		montoCobro = in.MontoAnticipo
	}

	c := &Cita{
		FolioCita:           Folio(s.now()),
		IDPaciente:          in.IDPaciente,
		IDMedico:            in.IDMedico,
		IDTratamiento:       in.IDTratamiento,
		FechaCita:           fecha,
		MedioSolicitud:      in.MedioSolicitud,
		MotivoCita:          in.MotivoCita,
		InfoRelevante:       in.InfoRelevante,
		Observaciones:       in.Observaciones,
		ResponsableRegistro: responsable,
		EstadoCita:          EstadoProgramada,
		EstadoPago:          estadoPago,
		MontoCobro:          montoCobro,
	}

	var anticipo *Anticipo
	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		if in.RequiereAnticipo {
			anticipo = &Anticipo{
				IDCita:        c.IDCita,
				IDPaciente:    c.IDPaciente,
				MontoAnticipo: *in.MontoAnticipo,
				Estado:        AnticipoPendiente,
			}
			return s.repo.CreateAnticipo(ctx, anticipo)
		}
		return nil
	})
	if err != nil {
		// The schema-level constraints backstop the conflict checks against
		// concurrent bookings of the same slot.
		if IsBookingConflict(err) {
			return nil, apperr.Conflict("El horario solicitado acaba de ser ocupado por otra cita.")
		}
		return nil, apperr.Internal(err)
	}

	s.enqueueNuevaCitaNotification(c, in.RequiereAnticipo, in.MontoAnticipo)

	result := &ResultadoCrearCita{
		Message:          "Cita creada correctamente",
		IDCita:           c.IDCita,
		FolioCita:        c.FolioCita,
		EstadoCita:       c.EstadoCita,
		EstadoPago:       c.EstadoPago,
		RequiereAnticipo: bool(in.RequiereAnticipo),
	}
	if anticipo != nil {
		result.IDAnticipo = &anticipo.IDAnticipo
	}
	return result, nil
}

func (s *Service) enqueueNuevaCitaNotification(c *Cita, requiereAnticipo Flag, montoAnticipo *float64) {
	if s.clinica == nil || s.outbox == nil {
		return
	}
	monto := 0.0
	if requiereAnticipo && montoAnticipo != nil {
		monto = *montoAnticipo
	}
	payload := clinica.NuevaCita{
		IDCita:              c.IDCita,
		FolioCita:           c.FolioCita,
		IDPaciente:          c.IDPaciente,
		IDMedico:            c.IDMedico,
		FechaCita:           c.FechaCita.String(),
		MedioSolicitud:      &c.MedioSolicitud,
		MotivoCita:          c.MotivoCita,
		InfoRelevante:       c.InfoRelevante,
		Observaciones:       c.Observaciones,
		ResponsableRegistro: &c.ResponsableRegistro,
		RequiereAnticipo:    bool(requiereAnticipo),
		MontoAnticipo:       monto,
	}
	if c.IDTratamiento != nil {
		payload.IDTratamiento = *c.IDTratamiento
	}
	if !s.outbox.Enqueue("clinica.notificar-nueva-cita", func(ctx context.Context) error {
		return s.clinica.NotificarNuevaCita(ctx, payload)
	}) {
		s.logger.Warn().Str("folio", c.FolioCita).Msg("cola de salida llena; no se notificó la nueva cita a Atención Clínica")
	}
}

func (s *Service) Listar(ctx context.Context, filter ListFilter) ([]*CitaListItem, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if items == nil {
		items = []*CitaListItem{}
	}
	return items, nil
}

func (s *Service) ListarResumen(ctx context.Context, filter ListFilter, page, pageSize int) (*ResumenCitas, error) {
	items, total, err := s.repo.ListResumen(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if items == nil {
		items = []*CitaListItem{}
	}
	return &ResumenCitas{Total: total, Page: page, PageSize: pageSize, Citas: items}, nil
}

// Detalle assembles the denormalized appointment view and enriches it with
// the live Caja balance. A balance failure is logged and leaves the field
// null; it never fails the request.
func (s *Service) Detalle(ctx context.Context, id int64) (*DetalleCita, error) {
	d, err := s.repo.GetDetalle(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if d == nil {
		return nil, apperr.NotFound("Cita no encontrada")
	}

	if s.caja != nil {
		saldo, err := s.caja.ObtenerSaldoPaciente(ctx, d.Paciente.IDPaciente)
		if err != nil {
			s.logger.Error().Err(err).Int64("id_paciente", d.Paciente.IDPaciente).Msg("error consultando saldo del paciente en Caja")
		} else {
			d.SaldoPacienteCaja = saldo
		}
	}
	return d, nil
}

// ConfirmarPago settles an appointment payment reported by Caja: the latest
// PENDIENTE anticipo (if any) is marked PAGADO and the cita itself is marked
// PAGADO. A cita that is already PAGADO is left untouched.
func (s *Service) ConfirmarPago(ctx context.Context, idCita int64, in ConfirmarPagoInput) (*ResultadoConfirmarPago, error) {
	if in.IDPago == "" {
		return nil, apperr.Validation("id_pago es obligatorio para confirmar el pago")
	}
	if in.MontoPagado != nil && *in.MontoPagado < 0 {
		return nil, apperr.Validation("monto_pagado debe ser un número mayor o igual a 0")
	}
	origen := in.Origen
	if origen == "" {
		origen = "CAJA"
	}

	result := &ResultadoConfirmarPago{
		IDCita:     idCita,
		IDPagoCaja: in.IDPago,
		Origen:     origen,
		EstadoPago: PagoPagado,
	}

	err := s.tx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, idCita)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound("Cita no encontrada")
		}
		if c.EstadoPago == PagoPagado {
			result.Message = "La cita ya tenía el pago registrado; no se aplicaron cambios"
			return nil
		}

		anticipo, err := s.repo.PendingAnticipo(ctx, idCita)
		if err != nil {
			return err
		}
		if anticipo != nil {
			if err := s.repo.MarkAnticipoPagado(ctx, anticipo.IDAnticipo, in.IDPago); err != nil {
				return err
			}
			result.Anticipo = &AnticipoResumen{
				IDAnticipo: anticipo.IDAnticipo,
				IDCita:     anticipo.IDCita,
				IDPaciente: anticipo.IDPaciente,
			}
		}

		if err := s.repo.MarkCitaPagada(ctx, idCita, in.IDPago, in.MontoPagado); err != nil {
			return err
		}
		result.Message = "Pago confirmado correctamente para la cita"
		return nil
	})
	if err != nil {
		if apperr.CodeOf(err) != apperr.CodeInternal {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}
	return result, nil
}

// RegistrarPagoParcial appends one increment to the payment ledger and
// recomputes the accumulated totals, all inside one transaction.
func (s *Service) RegistrarPagoParcial(ctx context.Context, idCita int64, in PagoParcialInput) (*ResultadoPagoParcial, error) {
	if in.Monto <= 0 {
		return nil, apperr.Validation("monto debe ser un número mayor que 0")
	}
	origen := in.Origen
	if origen == "" {
		origen = "CAJA"
	}

	var result *ResultadoPagoParcial
	err := s.tx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, idCita)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound("Cita no encontrada")
		}
		if c.MontoCobro == nil || *c.MontoCobro <= 0 {
			return apperr.Validation("La cita no tiene monto_cobro configurado")
		}

		nuevoPagado := c.MontoPagado + in.Monto
		saldo := *c.MontoCobro - nuevoPagado
		if saldo < 0 {
			saldo = 0
		}
		estado := PagoParcial
		if saldo == 0 {
			estado = PagoPagado
		}

		pago := &Pago{
			IDCita:        idCita,
			IDPaciente:    c.IDPaciente,
			Monto:         in.Monto,
			Origen:        origen,
			IDPagoCaja:    in.IDPagoCaja,
			Observaciones: in.Observaciones,
		}
		if err := s.repo.CreatePago(ctx, pago); err != nil {
			return err
		}
		if err := s.repo.UpdateMontos(ctx, idCita, nuevoPagado, saldo, estado); err != nil {
			return err
		}

		result = &ResultadoPagoParcial{
			Message:        "Pago registrado correctamente",
			IDCita:         idCita,
			IDPagoCita:     pago.IDPagoCita,
			EstadoPago:     estado,
			MontoPagado:    nuevoPagado,
			SaldoPendiente: saldo,
		}
		return nil
	})
	if err != nil {
		if apperr.CodeOf(err) != apperr.CodeInternal {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}
	return result, nil
}

func (s *Service) cambiarEstado(ctx context.Context, id int64, destino Estado, gate func(ctx context.Context, c *Cita) error) (*DetalleCita, error) {
	if !estadosValidos[destino] {
		return nil, apperr.Validation("Estado de cita no válido: %s", destino)
	}

	err := s.tx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound("Cita no encontrada")
		}
		if gate != nil {
			if err := gate(ctx, c); err != nil {
				return err
			}
		}
		updated, err := s.repo.UpdateEstado(ctx, id, destino)
		if err != nil {
			return err
		}
		if !updated {
			return apperr.NotFound("Cita no encontrada")
		}
		return nil
	})
	if err != nil {
		if apperr.CodeOf(err) != apperr.CodeInternal {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}
	return s.Detalle(ctx, id)
}

// IniciarAtencion moves a PROGRAMADA appointment to CONFIRMADA.
func (s *Service) IniciarAtencion(ctx context.Context, id int64) (*DetalleCita, error) {
	return s.cambiarEstado(ctx, id, EstadoConfirmada, func(_ context.Context, c *Cita) error {
		if c.EstadoCita != EstadoProgramada {
			return apperr.InvalidState("Solo se puede iniciar la atención de una cita PROGRAMADA (estado actual: %s)", c.EstadoCita)
		}
		return nil
	})
}

// MarcarAtendida closes a CONFIRMADA appointment. A PENDIENTE anticipo blocks
// the transition.
func (s *Service) MarcarAtendida(ctx context.Context, id int64) (*DetalleCita, error) {
	return s.cambiarEstado(ctx, id, EstadoAtendida, func(ctx context.Context, c *Cita) error {
		if c.EstadoCita != EstadoConfirmada {
			return apperr.InvalidState("Solo se puede marcar como atendida una cita CONFIRMADA (estado actual: %s)", c.EstadoCita)
		}
		anticipo, err := s.repo.PendingAnticipo(ctx, c.IDCita)
		if err != nil {
			return err
		}
		if anticipo != nil {
			return apperr.InvalidState("La cita tiene un anticipo PENDIENTE; debe confirmarse el pago antes de marcarla como atendida")
		}
		return nil
	})
}

// Cancelar cancels a PROGRAMADA or CONFIRMADA appointment.
func (s *Service) Cancelar(ctx context.Context, id int64) (*DetalleCita, error) {
	return s.cambiarEstado(ctx, id, EstadoCancelada, func(_ context.Context, c *Cita) error {
		if c.EstadoCita != EstadoProgramada && c.EstadoCita != EstadoConfirmada {
			return apperr.InvalidState("Solo se puede cancelar una cita PROGRAMADA o CONFIRMADA (estado actual: %s)", c.EstadoCita)
		}
		return nil
	})
}

// RegistrarCobroCaja pushes the deposit charge of an appointment to Caja. A
// Caja timeout yields a soft unconfirmed result instead of an error.
func (s *Service) RegistrarCobroCaja(ctx context.Context, idCita int64) (*ResultadoCobroCaja, error) {
	c, err := s.repo.GetByID(ctx, idCita)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if c == nil {
		return nil, apperr.NotFound("Cita no encontrada")
	}
	if c.EstadoPago == PagoPagado {
		return nil, apperr.Validation("La cita ya tiene el pago registrado")
	}
	if c.MontoCobro == nil || *c.MontoCobro <= 0 {
		return nil, apperr.Validation("La cita no tiene monto de cobro configurado")
	}
	if s.caja == nil {
		return nil, apperr.Integration("el cliente de Caja no está configurado", 0, nil)
	}

	resultado, err := s.caja.CrearCobro(ctx, caja.Cobro{
		IDCita:     c.IDCita,
		IDPaciente: c.IDPaciente,
		Monto:      *c.MontoCobro,
		MetodoPago: "EFECTIVO",
	})
	if err != nil {
		return nil, err
	}

	mensaje := "Cobro enviado a Caja correctamente"
	if resultado.Unconfirmed {
		mensaje = "Cobro enviado a Caja (respuesta no confirmada; revisar en Caja)."
	}
	return &ResultadoCobroCaja{Mensaje: mensaje, Caja: resultado}, nil
}
