package cita

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sigcd/gestion-citas/internal/platform/apperr"
)

func newTestServer(env *testEnv) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop())
	NewHandler(env.svc).RegisterRoutes(e.Group("/api"))
	return e
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCrearCita(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	body := `{"id_paciente":1,"id_medico":2,"fecha_cita":"2025-12-05T16:00","medio_solicitud":"TELEFONO","requiere_anticipo":"true","monto_anticipo":500}`
	rec := doJSON(e, http.MethodPost, "/api/citas", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got ResultadoCrearCita
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Message != "Cita creada correctamente" || got.FolioCita == "" {
		t.Errorf("response = %+v", got)
	}
	if !got.RequiereAnticipo || got.IDAnticipo == nil {
		t.Errorf("string \"true\" should count as requiere_anticipo: %+v", got)
	}
}

func TestHandlerCrearCitaValidacion(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	rec := doJSON(e, http.MethodPost, "/api/citas", `{"id_medico":2}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != apperr.CodeValidation {
		t.Errorf("code = %q", body["code"])
	}
	if body["error"] == "" {
		t.Error("expected error message")
	}
}

func TestHandlerCrearCitaConflicto(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	body := `{"id_paciente":1,"id_medico":2,"fecha_cita":"2025-12-05 16:00","medio_solicitud":"WEB"}`
	if rec := doJSON(e, http.MethodPost, "/api/citas", body); rec.Code != http.StatusCreated {
		t.Fatalf("first booking: %d", rec.Code)
	}
	rec := doJSON(e, http.MethodPost, "/api/citas", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerDetalle(t *testing.T) {
	env := newTestEnv()
	env.caja.saldo = json.RawMessage(`{"saldo":80}`)
	e := newTestServer(env)

	doJSON(e, http.MethodPost, "/api/citas", `{"id_paciente":1,"id_medico":2,"fecha_cita":"2025-12-05 16:00","medio_solicitud":"WEB"}`)

	rec := doJSON(e, http.MethodGet, "/api/citas/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if string(got["saldo_paciente_caja"]) != `{"saldo":80}` {
		t.Errorf("saldo_paciente_caja = %s", got["saldo_paciente_caja"])
	}
	if string(got["fecha_cita"]) != `"2025-12-05 16:00:00"` {
		t.Errorf("fecha_cita = %s", got["fecha_cita"])
	}
}

func TestHandlerDetalleIDInvalido(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	for _, target := range []string{"/api/citas/abc", "/api/citas/0", "/api/citas/-3"} {
		if rec := doJSON(e, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
}

func TestHandlerDetalleNoEncontrada(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	rec := doJSON(e, http.MethodGet, "/api/citas/42", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandlerResumen(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	doJSON(e, http.MethodPost, "/api/citas", `{"id_paciente":1,"id_medico":2,"fecha_cita":"2025-12-05 16:00","medio_solicitud":"WEB"}`)
	doJSON(e, http.MethodPost, "/api/citas", `{"id_paciente":3,"id_medico":4,"fecha_cita":"2025-12-05 16:00","medio_solicitud":"WEB"}`)

	rec := doJSON(e, http.MethodGet, "/api/citas/resumen?page=1&pageSize=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got ResumenCitas
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Total != 2 || got.Page != 1 || got.PageSize != 10 || len(got.Citas) != 2 {
		t.Errorf("resumen = %+v", got)
	}
}

func TestHandlerResumenFiltroFechaInvalida(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	rec := doJSON(e, http.MethodGet, "/api/citas/resumen?fecha_desde=05/12/2025", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandlerListarFiltraPorPaciente(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	doJSON(e, http.MethodPost, "/api/citas", `{"id_paciente":1,"id_medico":2,"fecha_cita":"2025-12-05 16:00","medio_solicitud":"WEB"}`)
	doJSON(e, http.MethodPost, "/api/citas", `{"id_paciente":3,"id_medico":4,"fecha_cita":"2025-12-05 16:00","medio_solicitud":"WEB"}`)

	rec := doJSON(e, http.MethodGet, "/api/citas?id_paciente=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []CitaListItem
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].IDPaciente != 3 {
		t.Errorf("items = %+v", got)
	}

	if rec := doJSON(e, http.MethodGet, "/api/citas?id_medico=x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id_medico: status = %d", rec.Code)
	}
}

func TestHandlerConfirmarPago(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	doJSON(e, http.MethodPost, "/api/citas", `{"id_paciente":1,"id_medico":2,"fecha_cita":"2025-12-05 16:00","medio_solicitud":"WEB","requiere_anticipo":true,"monto_anticipo":500}`)

	rec := doJSON(e, http.MethodPost, "/api/citas/1/confirmar-pago", `{"id_pago":"PAGO-55"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got ResultadoConfirmarPago
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.IDPagoCaja != "PAGO-55" || got.EstadoPago != PagoPagado || got.Anticipo == nil {
		t.Errorf("response = %+v", got)
	}

	if rec := doJSON(e, http.MethodPost, "/api/citas/1/confirmar-pago", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing id_pago: status = %d", rec.Code)
	}
}

func TestHandlerPagosParciales(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	doJSON(e, http.MethodPost, "/api/citas", `{"id_paciente":1,"id_medico":2,"fecha_cita":"2025-12-05 16:00","medio_solicitud":"WEB","requiere_anticipo":true,"monto_anticipo":500}`)

	rec := doJSON(e, http.MethodPost, "/api/citas/1/pagos", `{"monto":200,"origen":"CAJA"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got ResultadoPagoParcial
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.EstadoPago != PagoParcial || got.SaldoPendiente != 300 {
		t.Errorf("response = %+v", got)
	}

	if rec := doJSON(e, http.MethodPost, "/api/citas/1/pagos", `{"monto":0}`); rec.Code != http.StatusBadRequest {
		t.Errorf("monto 0: status = %d", rec.Code)
	}
}

func TestHandlerTransiciones(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	doJSON(e, http.MethodPost, "/api/citas", `{"id_paciente":1,"id_medico":2,"fecha_cita":"2025-12-05 16:00","medio_solicitud":"WEB"}`)

	rec := doJSON(e, http.MethodPost, "/api/citas/1/iniciar-atencion", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("iniciar-atencion: %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(e, http.MethodPost, "/api/citas/1/atendida", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("atendida: %d, body = %s", rec.Code, rec.Body.String())
	}
	// ATENDIDA is terminal.
	if rec := doJSON(e, http.MethodPost, "/api/citas/1/cancelar", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("cancelar atendida: status = %d", rec.Code)
	}
}

func TestHandlerRegistrarCobroCaja(t *testing.T) {
	env := newTestEnv()
	e := newTestServer(env)

	doJSON(e, http.MethodPost, "/api/citas", `{"id_paciente":1,"id_medico":2,"fecha_cita":"2025-12-05 16:00","medio_solicitud":"WEB","requiere_anticipo":true,"monto_anticipo":500}`)

	rec := doJSON(e, http.MethodPost, "/api/citas/1/registrar-cobro-caja", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if string(got["mensaje"]) != `"Cobro enviado a Caja correctamente"` {
		t.Errorf("mensaje = %s", got["mensaje"])
	}
	if len(env.caja.cobros) != 1 {
		t.Errorf("cobros = %d", len(env.caja.cobros))
	}
}
