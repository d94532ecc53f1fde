package cita

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Estado is the appointment lifecycle state. CANCELADA and ATENDIDA are
// terminal.
type Estado string

const (
	EstadoProgramada Estado = "PROGRAMADA"
	EstadoConfirmada Estado = "CONFIRMADA"
	EstadoAtendida   Estado = "ATENDIDA"
	EstadoCancelada  Estado = "CANCELADA"
)

var estadosValidos = map[Estado]bool{
	EstadoProgramada: true,
	EstadoConfirmada: true,
	EstadoAtendida:   true,
	EstadoCancelada:  true,
}

// EstadoPago is the payment state of an appointment.
type EstadoPago string

const (
	PagoSinPago   EstadoPago = "SIN_PAGO"
	PagoPendiente EstadoPago = "PENDIENTE"
	PagoParcial   EstadoPago = "PAGO_PARCIAL"
	PagoPagado    EstadoPago = "PAGADO"
)

// Deposit states on anticipo_cita.
const (
	AnticipoPendiente = "PENDIENTE"
	AnticipoPagado    = "PAGADO"
)

const fechaLayout = "2006-01-02 15:04:05"

// FechaHora is the appointment wall-clock timestamp. It marshals as
// "YYYY-MM-DD HH:MM:SS" and accepts the same format with a "T" separator or
// missing seconds, as sent by datetime-local inputs. No timezone conversion
// is applied.
type FechaHora struct {
	time.Time
}

// ParseFechaHora normalizes a raw date-time string.
func ParseFechaHora(raw string) (FechaHora, error) {
	f := strings.TrimSpace(raw)
	if f == "" {
		return FechaHora{}, fmt.Errorf("fecha vacía")
	}
	f = strings.Replace(f, "T", " ", 1)
	if len(f) == len("2006-01-02 15:04") {
		f += ":00"
	}
	t, err := time.ParseInLocation(fechaLayout, f, time.Local)
	if err != nil {
		return FechaHora{}, err
	}
	return FechaHora{Time: t}, nil
}

func (f FechaHora) String() string {
	return f.Format(fechaLayout)
}

func (f FechaHora) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *FechaHora) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseFechaHora(raw)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f FechaHora) Value() (driver.Value, error) {
	return f.Time, nil
}

func (f *FechaHora) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		f.Time = v
		return nil
	case string:
		parsed, err := ParseFechaHora(v)
		if err != nil {
			return err
		}
		*f = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into FechaHora", src)
	}
}

// Flag is a flexible boolean: front ends send true/false, "true"/"false",
// 1/0 or "1"/"0" interchangeably.
type Flag bool

func (fl *Flag) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch s {
	case "true", "1", `"true"`, `"1"`, `"on"`:
		*fl = true
	default:
		*fl = false
	}
	return nil
}

// Cita maps to the cita table.
type Cita struct {
	IDCita              int64      `db:"id_cita" json:"id_cita"`
	FolioCita           string     `db:"folio_cita" json:"folio_cita"`
	IDPaciente          int64      `db:"id_paciente" json:"id_paciente"`
	IDMedico            int64      `db:"id_medico" json:"id_medico"`
	IDTratamiento       *int64     `db:"id_tratamiento" json:"id_tratamiento"`
	FechaCita           FechaHora  `db:"fecha_cita" json:"fecha_cita"`
	MedioSolicitud      string     `db:"medio_solicitud" json:"medio_solicitud"`
	MotivoCita          *string    `db:"motivo_cita" json:"motivo_cita"`
	InfoRelevante       *string    `db:"info_relevante" json:"info_relevante"`
	Observaciones       *string    `db:"observaciones" json:"observaciones"`
	ResponsableRegistro string     `db:"responsable_registro" json:"responsable_registro"`
	EstadoCita          Estado     `db:"estado_cita" json:"estado_cita"`
	EstadoPago          EstadoPago `db:"estado_pago" json:"estado_pago"`
	MontoCobro          *float64   `db:"monto_cobro" json:"monto_cobro"`
	MontoPagado         float64    `db:"monto_pagado" json:"monto_pagado"`
	SaldoPendiente      *float64   `db:"saldo_pendiente" json:"saldo_pendiente"`
	IDPagoCaja          *string    `db:"id_pago_caja" json:"id_pago_caja"`
	FechaRegistro       time.Time  `db:"fecha_registro" json:"fecha_registro"`
}

// Anticipo maps to the anticipo_cita table: the 0..1 deposit attached to an
// appointment at booking time.
type Anticipo struct {
	IDAnticipo        int64      `db:"id_anticipo" json:"id_anticipo"`
	IDCita            int64      `db:"id_cita" json:"id_cita"`
	IDPaciente        int64      `db:"id_paciente" json:"id_paciente"`
	MontoAnticipo     float64    `db:"monto_anticipo" json:"monto_anticipo"`
	Estado            string     `db:"estado" json:"estado"`
	IDPagoCaja        *string    `db:"id_pago_caja" json:"id_pago_caja"`
	FechaSolicitud    time.Time  `db:"fecha_solicitud" json:"fecha_solicitud"`
	FechaConfirmacion *time.Time `db:"fecha_confirmacion" json:"fecha_confirmacion"`
}

// Pago maps to the pago_cita ledger of partial payments.
type Pago struct {
	IDPagoCita    int64     `db:"id_pago_cita" json:"id_pago_cita"`
	IDCita        int64     `db:"id_cita" json:"id_cita"`
	IDPaciente    int64     `db:"id_paciente" json:"id_paciente"`
	Monto         float64   `db:"monto" json:"monto"`
	Origen        string    `db:"origen" json:"origen"`
	IDPagoCaja    *string   `db:"id_pago_caja" json:"id_pago_caja"`
	Observaciones *string   `db:"observaciones" json:"observaciones"`
	FechaPago     time.Time `db:"fecha_pago" json:"fecha_pago"`
}

// CrearCitaInput is the booking payload. FechaCita arrives raw and is
// normalized by the service.
type CrearCitaInput struct {
	IDPaciente          int64    `json:"id_paciente"`
	IDMedico            int64    `json:"id_medico"`
	IDTratamiento       *int64   `json:"id_tratamiento"`
	FechaCita           string   `json:"fecha_cita"`
	MedioSolicitud      string   `json:"medio_solicitud"`
	MotivoCita          *string  `json:"motivo_cita"`
	InfoRelevante       *string  `json:"info_relevante"`
	Observaciones       *string  `json:"observaciones"`
	ResponsableRegistro string   `json:"responsable_registro"`
	RequiereAnticipo    Flag     `json:"requiere_anticipo"`
	MontoAnticipo       *float64 `json:"monto_anticipo"`
}

// ResultadoCrearCita is the 201 response of a booking.
type ResultadoCrearCita struct {
	Message          string     `json:"message"`
	IDCita           int64      `json:"id_cita"`
	FolioCita        string     `json:"folio_cita"`
	EstadoCita       Estado     `json:"estado_cita"`
	EstadoPago       EstadoPago `json:"estado_pago"`
	RequiereAnticipo bool       `json:"requiere_anticipo"`
	IDAnticipo       *int64     `json:"id_anticipo"`
}

// ConfirmarPagoInput is sent by Caja when a payment settles.
type ConfirmarPagoInput struct {
	IDPago      string   `json:"id_pago"`
	MontoPagado *float64 `json:"monto_pagado"`
	Origen      string   `json:"origen"`
}

// ResultadoConfirmarPago summarizes a payment confirmation.
type ResultadoConfirmarPago struct {
	Message    string           `json:"message"`
	IDCita     int64            `json:"id_cita"`
	IDPagoCaja string           `json:"id_pago_caja"`
	Origen     string           `json:"origen"`
	EstadoPago EstadoPago       `json:"estado_pago"`
	Anticipo   *AnticipoResumen `json:"anticipo"`
}

// AnticipoResumen identifies the settled deposit in a confirmation response.
type AnticipoResumen struct {
	IDAnticipo int64 `json:"id_anticipo"`
	IDCita     int64 `json:"id_cita"`
	IDPaciente int64 `json:"id_paciente"`
}

// PagoParcialInput registers one increment in the payment ledger.
type PagoParcialInput struct {
	Monto         float64 `json:"monto"`
	IDPagoCaja    *string `json:"id_pago_caja"`
	Origen        string  `json:"origen"`
	Observaciones *string `json:"observaciones"`
}

// ResultadoPagoParcial reports the accumulated totals after a partial payment.
type ResultadoPagoParcial struct {
	Message        string     `json:"message"`
	IDCita         int64      `json:"id_cita"`
	IDPagoCita     int64      `json:"id_pago_cita"`
	EstadoPago     EstadoPago `json:"estado_pago"`
	MontoPagado    float64    `json:"monto_pagado"`
	SaldoPendiente float64    `json:"saldo_pendiente"`
}

// ListFilter narrows the unpaginated appointment listing.
type ListFilter struct {
	FechaDesde *FechaHora
	FechaHasta *FechaHora
	EstadoCita Estado
	EstadoPago EstadoPago
	IDPaciente int64
	IDMedico   int64
}

/// CitaListItem is one row of the listings: appointment summary plus the
// joined patient and doctor names.
type CitaListItem struct {
	IDCita            int64      `json:"id_cita"`
	FolioCita         string     `json:"folio_cita"`
	FechaCita         FechaHora  `json:"fecha_cita"`
	EstadoCita        Estado     `json:"estado_cita"`
	EstadoPago        EstadoPago `json:"estado_pago"`
	MontoCobro        *float64   `json:"monto_cobro"`
	IDPaciente        int64      `json:"id_paciente"`
	NombrePaciente    string     `json:"nombre_paciente"`
	ApellidosPaciente string     `json:"apellidos_paciente"`
	IDMedico          int64      `json:"id_medico"`
	NombreMedico      string     `json:"nombre_medico"`
	ApellidosMedico   string     `json:"apellidos_medico"`
}

// ResumenCitas is the paginated summary response consumed by the front end
// and by Caja.
type ResumenCitas struct {
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Citas    []*CitaListItem `json:"citas"`
}

// DetallePaciente is the patient block of the appointment detail.
type DetallePaciente struct {
	IDPaciente      int64   `json:"id_paciente"`
	Nombre          string  `json:"nombre"`
	Apellidos       string  `json:"apellidos"`
	Telefono        *string `json:"telefono"`
	Email           *string `json:"email"`
	CanalPreferente *string `json:"canal_preferente"`
}

// DetalleMedico is the doctor block of the appointment detail.
type DetalleMedico struct {
	IDMedico          int64   `json:"id_medico"`
	Nombre            string  `json:"nombre"`
	Apellidos         string  `json:"apellidos"`
	Especialidad      *string `json:"especialidad"`
	CedulaProfesional *string `json:"cedula_profesional"`
}

// DetalleTratamiento is the treatment block of the appointment detail.
type DetalleTratamiento struct {
	IDTratamiento int64   `json:"id_tratamiento"`
	CveTrat       string  `json:"cve_trat"`
	Nombre        string  `json:"nombre"`
	Descripcion   *string `json:"descripcion"`
	PrecioBase    float64 `json:"precio_base"`
	DuracionMin   *int    `json:"duracion_min"`
}

// DetalleCita is the denormalized appointment view. SaldoPacienteCaja is the
// live balance from Caja and stays null when the lookup fails.
type DetalleCita struct {
	IDCita            int64              `json:"id_cita"`
	FolioCita         string             `json:"folio_cita"`
	FechaRegistro     time.Time          `json:"fecha_registro"`
	FechaCita         FechaHora          `json:"fecha_cita"`
	EstadoCita        Estado             `json:"estado_cita"`
	EstadoPago        EstadoPago         `json:"estado_pago"`
	MontoCobro        *float64           `json:"monto_cobro"`
	MontoPagado       float64            `json:"monto_pagado"`
	SaldoPendiente    *float64           `json:"saldo_pendiente"`
	SaldoPaciente     float64            `json:"saldo_paciente"`
	Paciente          DetallePaciente    `json:"paciente"`
	Medico            DetalleMedico      `json:"medico"`
	Tratamiento       DetalleTratamiento `json:"tratamiento"`
	Anticipo          *Anticipo          `json:"anticipo"`
	SaldoPacienteCaja json.RawMessage    `json:"saldo_paciente_caja"`
}

// ResultadoCobroCaja reports the outcome of pushing the deposit charge to
// Caja.
type ResultadoCobroCaja struct {
	Mensaje string      `json:"mensaje"`
	Caja    interface{} `json:"caja"`
}
