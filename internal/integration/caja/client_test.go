package caja

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sigcd/gestion-citas/internal/platform/apperr"
)

func newTestClient(t *testing.T, handler http.Handler, timeout time.Duration) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.URL+"/api/caja/saldo-paciente", timeout, zerolog.Nop()), srv
}

func TestRegistrarPaciente(t *testing.T) {
	var got PacienteSync
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pacientes" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}), time.Second)

	err := client.RegistrarPaciente(context.Background(), PacienteSync{Nombre: "Ana", Apellido: "Lopez"})
	if err != nil {
		t.Fatalf("RegistrarPaciente: %v", err)
	}
	if got.Nombre != "Ana" || got.Apellido != "Lopez" {
		t.Errorf("payload = %+v", got)
	}
}

func TestUpstreamErrorStatusPropagates(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"sin fondos"}`, http.StatusUnprocessableEntity)
	}), time.Second)

	err := client.BloquearMonto(context.Background(), 7, 100)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := apperr.StatusOf(err); got != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", got)
	}
	if got := apperr.CodeOf(err); got != apperr.CodeIntegration {
		t.Errorf("code = %s", got)
	}
}

func TestConnectionFailureMapsTo502(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := NewClient(srv.URL, srv.URL, time.Second, zerolog.Nop())
	srv.Close()

	err := client.RegistrarPaciente(context.Background(), PacienteSync{Nombre: "Ana"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := apperr.StatusOf(err); got != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", got)
	}
}

func TestObtenerSaldoPaciente(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/caja/saldo-paciente/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"idPaciente":42,"saldo":150.50}`))
	}), time.Second)

	raw, err := client.ObtenerSaldoPaciente(context.Background(), 42)
	if err != nil {
		t.Fatalf("ObtenerSaldoPaciente: %v", err)
	}
	var body struct {
		Saldo float64 `json:"saldo"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Saldo != 150.50 {
		t.Errorf("saldo = %v", body.Saldo)
	}

	if _, err := client.ObtenerSaldoPaciente(context.Background(), 0); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCrearCobroTimeoutReturnsUnconfirmed(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}), 50*time.Millisecond)

	result, err := client.CrearCobro(context.Background(), Cobro{IDCita: 1, IDPaciente: 2, Monto: 500, MetodoPago: "EFECTIVO"})
	if err != nil {
		t.Fatalf("CrearCobro: %v", err)
	}
	if !result.Unconfirmed {
		t.Error("expected unconfirmed result on timeout")
	}
	if result.Mensaje == "" {
		t.Error("expected explanatory message")
	}
}

func TestCrearCobroSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"mensaje":"cobro registrado"}`))
	}), time.Second)

	result, err := client.CrearCobro(context.Background(), Cobro{IDCita: 1, IDPaciente: 2, Monto: 500, MetodoPago: "TARJETA"})
	if err != nil {
		t.Fatalf("CrearCobro: %v", err)
	}
	if result.Unconfirmed {
		t.Error("unexpected unconfirmed flag")
	}
	if result.Mensaje != "cobro registrado" {
		t.Errorf("mensaje = %q", result.Mensaje)
	}
}

func TestCrearPresupuestoValidation(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler(), time.Second)
	if _, err := client.CrearPresupuesto(context.Background(), 1, nil); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}
