package paciente

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sigcd/gestion-citas/internal/platform/apperr"
	"github.com/sigcd/gestion-citas/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/pacientes", h.List)
	api.GET("/pacientes/:id", h.Get)
	api.POST("/pacientes", h.Create)
	api.PATCH("/pacientes/:id", h.Update)
	api.GET("/pacientes/:id/saldo-caja", h.SaldoCaja)
}

func pacienteID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.Validation("El id del paciente debe ser un entero válido")
	}
	return id, nil
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := ListFilter{
		Q:               c.QueryParam("q"),
		CanalPreferente: c.QueryParam("canal_preferente"),
	}
	result, err := h.svc.List(c.Request().Context(), filter, pg.Page, pg.PageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pacienteID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Create(c echo.Context) error {
	var in CrearPacienteInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("cuerpo de la petición inválido")
	}
	p, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := pacienteID(c)
	if err != nil {
		return err
	}
	var in ActualizarPacienteInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("cuerpo de la petición inválido")
	}
	if err := h.svc.Update(c.Request().Context(), id, in); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"id_paciente": id})
}

func (h *Handler) SaldoCaja(c echo.Context) error {
	id, err := pacienteID(c)
	if err != nil {
		return err
	}
	raw, err := h.svc.SaldoCaja(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, raw)
}
