// Package caja is the HTTP client for the Caja (billing) sibling service:
// patient registration, budgets, balances, amount locks, charges and
// treatment-catalog sync.
package caja

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sigcd/gestion-citas/internal/platform/apperr"
)

// PacienteSync is the patient payload Caja expects.
type PacienteSync struct {
	Nombre    string  `json:"nombre"`
	Apellido  string  `json:"apellido"`
	FechaNac  *string `json:"fecha_nac"`
	Direccion string  `json:"direccion"`
	Correo    *string `json:"correo"`
}

// TratamientoSync is a catalog entry pushed to Caja.
type TratamientoSync struct {
	CveTrat     string   `json:"cve_trat"`
	Nombre      string   `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	PrecioBase  float64 `json:"precio_base"`
	DuracionMin *int    `json:"duracion_min"`
}

// Cobro is a charge request against a patient for an appointment.
type Cobro struct {
	IDCita     int64   `json:"idCita"`
	IDPaciente int64   `json:"idPaciente"`
	Monto      float64 `json:"monto"`
	MetodoPago string  `json:"metodoPago"`
}

// CobroResult is the outcome of a charge request. Unconfirmed is set when
// the request timed out: the charge may have been registered in Caja, so the
// caller must not treat it as a failure.
type CobroResult struct {
	Unconfirmed bool            `json:"timeout,omitempty"`
	Mensaje     string          `json:"mensaje"`
	Raw         json.RawMessage `json:"-"`
}

// Client talks to the Caja API with a fixed short timeout.
type Client struct {
	baseURL  string
	saldoURL string
	http     *http.Client
	logger   zerolog.Logger
}

// NewClient builds a Caja client. saldoURL is the full URL prefix of the
// balance endpoint (the deployment exposes it outside the base API path).
func NewClient(baseURL, saldoURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		saldoURL: saldoURL,
		http:     &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "caja").Logger(),
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) do(ctx context.Context, method, url string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("marshal caja request: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("build caja request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", url).Msg("caja request failed")
		return nil, apperr.Integration(fmt.Sprintf("error al comunicarse con CAJA (%s %s)", method, url), 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Integration(fmt.Sprintf("error al leer respuesta de CAJA (%s %s)", method, url), 0, err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Error().Int("status", resp.StatusCode).Str("url", url).Bytes("body", data).Msg("caja returned error")
		return nil, apperr.Integration(
			fmt.Sprintf("error al comunicarse con CAJA (%s %s)", method, url),
			resp.StatusCode,
			fmt.Errorf("caja respondió %d: %s", resp.StatusCode, data),
		)
	}
	return data, nil
}

// RegistrarPaciente registers a patient in Caja.
func (c *Client) RegistrarPaciente(ctx context.Context, p PacienteSync) error {
	_, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/pacientes", p)
	return err
}

// CrearPresupuesto creates a budget for a patient over a set of treatments.
func (c *Client) CrearPresupuesto(ctx context.Context, idPaciente int64, tratamientos []TratamientoSync) (json.RawMessage, error) {
	if idPaciente <= 0 || len(tratamientos) == 0 {
		return nil, apperr.Validation("idPaciente y tratamientos son obligatorios para crear un presupuesto en Caja")
	}
	return c.do(ctx, http.MethodPost, c.baseURL+"/api/presupuestos/crear", map[string]interface{}{
		"idPaciente":   idPaciente,
		"tratamientos": tratamientos,
	})
}

// ObtenerSaldoPaciente returns the patient's balance as Caja reports it.
func (c *Client) ObtenerSaldoPaciente(ctx context.Context, idPaciente int64) (json.RawMessage, error) {
	if idPaciente <= 0 {
		return nil, apperr.Validation("idPaciente es obligatorio para consultar el saldo en Caja")
	}
	return c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", c.saldoURL, idPaciente), nil)
}

// BloquearMonto asks Caja to lock an amount against a patient.
func (c *Client) BloquearMonto(ctx context.Context, idPaciente int64, monto float64) error {
	if idPaciente <= 0 || monto <= 0 {
		return apperr.Validation("idPaciente y monto (> 0) son obligatorios para bloquear monto en Caja")
	}
	_, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/caja/bloquear-monto", map[string]interface{}{
		"idPaciente": idPaciente,
		"monto":      monto,
	})
	return err
}

// CrearCobro posts a charge. A timeout is not an error: the charge may have
// landed in Caja, so an unconfirmed result is returned instead.
func (c *Client) CrearCobro(ctx context.Context, cobro Cobro) (*CobroResult, error) {
	data, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/cobros", cobro)
	if err != nil {
		if isTimeout(errors.Unwrap(err)) || isTimeout(err) {
			c.logger.Warn().Int64("id_cita", cobro.IDCita).Msg("timeout esperando respuesta de /api/cobros; el cobro puede haberse registrado en Caja")
			return &CobroResult{
				Unconfirmed: true,
				Mensaje:     "Cobro enviado a Caja (timeout al esperar la respuesta). Revisar en Caja si quedó registrado.",
			}, nil
		}
		return nil, err
	}

	result := &CobroResult{Raw: data}
	_ = json.Unmarshal(data, result)
	return result, nil
}

// SincronizarTratamiento pushes a treatment catalog entry to Caja.
func (c *Client) SincronizarTratamiento(ctx context.Context, t TratamientoSync) error {
	if t.Nombre == "" {
		return apperr.Validation("tratamiento inválido: falta al menos el campo nombre para sincronizar en Caja")
	}
	_, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/tratamientos/sync-desde-sigcd", map[string]interface{}{
		"tratamientos": []TratamientoSync{t},
	})
	return err
}
