// Package clinica is the HTTP client for the Atención Clínica sibling
// service. Both calls are best-effort notifications: when the target URL is
// not configured the client logs and skips instead of failing.
package clinica

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// NuevaCita is the payload sent when an appointment is created.
type NuevaCita struct {
	IDCita              int64   `json:"id_cita"`
	FolioCita           string  `json:"folio_cita"`
	IDPaciente          int64   `json:"id_paciente"`
	IDMedico            int64   `json:"id_medico"`
	IDTratamiento       int64   `json:"id_tratamiento"`
	FechaCita           string  `json:"fecha_cita"`
	MedioSolicitud      *string `json:"medio_solicitud"`
	MotivoCita          *string `json:"motivo_cita"`
	InfoRelevante       *string `json:"info_relevante"`
	Observaciones       *string `json:"observaciones"`
	ResponsableRegistro *string `json:"responsable_registro"`
	RequiereAnticipo    bool    `json:"requiere_anticipo"`
	MontoAnticipo       float64 `json:"monto_anticipo"`
}

// PacienteSync is the patient payload mirrored to the clinical service.
type PacienteSync struct {
	IDPaciente      int64   `json:"id_paciente"`
	Nombre          string  `json:"nombre"`
	Apellidos       string  `json:"apellidos"`
	FechaNacimiento *string `json:"fecha_nacimiento"`
	Telefono        *string `json:"telefono"`
	Correo          *string `json:"correo"`
}

// Client posts notifications to Atención Clínica.
type Client struct {
	citasURL     string
	pacientesURL string
	http         *http.Client
	logger       zerolog.Logger
}

func NewClient(citasURL, pacientesURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		citasURL:     citasURL,
		pacientesURL: pacientesURL,
		http:         &http.Client{Timeout: timeout},
		logger:       logger.With().Str("component", "clinica").Logger(),
	}
}

func (c *Client) post(ctx context.Context, url string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal clinica payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build clinica request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("clinica respondió %d en %s: %s", resp.StatusCode, url, data)
	}
	return nil
}

// NotificarNuevaCita sends the new-appointment notification. It is a no-op
// when the URL is not configured.
func (c *Client) NotificarNuevaCita(ctx context.Context, cita NuevaCita) error {
	if c.citasURL == "" {
		c.logger.Warn().Str("folio", cita.FolioCita).Msg("ATENCION_CLINICA_URL no configurada; se omite la notificación de nueva cita")
		return nil
	}
	return c.post(ctx, c.citasURL, cita)
}

// SincronizarPaciente mirrors a patient record to the clinical service. It is
// a no-op when the URL is not configured.
func (c *Client) SincronizarPaciente(ctx context.Context, p PacienteSync) error {
	if c.pacientesURL == "" {
		c.logger.Warn().Int64("id_paciente", p.IDPaciente).Msg("ATENCION_CLINICA_PACIENTES_URL no configurada; se omite la sincronización del paciente")
		return nil
	}
	return c.post(ctx, c.pacientesURL, p)
}
