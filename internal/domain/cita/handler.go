package cita

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
	api.POST("/citas", h.Crear)
	api.GET("/citas", h.Listar)
	api.GET("/citas/resumen", h.ListarResumen)
	api.GET("/citas/:id", h.Detalle)
	api.POST("/citas/:id/confirmar-pago", h.ConfirmarPago)
	api.POST("/citas/:id/pagos", h.RegistrarPagoParcial)
	api.POST("/citas/:id/iniciar-atencion", h.IniciarAtencion)
	api.POST("/citas/:id/atendida", h.MarcarAtendida)
	api.POST("/citas/:id/cancelar", h.Cancelar)
	api.POST("/citas/:id/registrar-cobro-caja", h.RegistrarCobroCaja)
}

func citaID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("El id de la cita debe ser un entero positivo")
	}
	return id, nil
}

func filterFromQuery(c echo.Context) (ListFilter, error) {
	var filter ListFilter

	if raw := c.QueryParam("fecha_desde"); raw != "" {
		f, err := ParseFechaHora(raw)
		if err != nil {
			return filter, apperr.Validation("fecha_desde no tiene un formato de fecha válido")
		}
		filter.FechaDesde = &f
	}
	if raw := c.QueryParam("fecha_hasta"); raw != "" {
		f, err := ParseFechaHora(raw)
		if err != nil {
			return filter, apperr.Validation("fecha_hasta no tiene un formato de fecha válido")
		}
		filter.FechaHasta = &f
	}
	filter.EstadoCita = Estado(c.QueryParam("estado_cita"))
	filter.EstadoPago = EstadoPago(c.QueryParam("estado_pago"))

	if raw := c.QueryParam("id_paciente"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, apperr.Validation("El id_paciente debe ser un número entero válido")
		}
		filter.IDPaciente = id
	}
	if raw := c.QueryParam("id_medico"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, apperr.Validation("El id_medico debe ser un número entero válido")
		}
		filter.IDMedico = id
	}
	return filter, nil
}

func (h *Handler) Crear(c echo.Context) error {
	var in CrearCitaInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("cuerpo de la petición inválido")
	}
	result, err := h.svc.Crear(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) Listar(c echo.Context) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	items, err := h.svc.Listar(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListarResumen(c echo.Context) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	result, err := h.svc.ListarResumen(c.Request().Context(), filter, pg.Page, pg.PageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Detalle(c echo.Context) error {
	id, err := citaID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Detalle(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ConfirmarPago(c echo.Context) error {
	id, err := citaID(c)
	if err != nil {
		return err
	}
	var in ConfirmarPagoInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("cuerpo de la petición inválido")
	}
	result, err := h.svc.ConfirmarPago(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) RegistrarPagoParcial(c echo.Context) error {
	id, err := citaID(c)
	if err != nil {
		return err
	}
	var in PagoParcialInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("cuerpo de la petición inválido")
	}
	result, err := h.svc.RegistrarPagoParcial(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) IniciarAtencion(c echo.Context) error {
	id, err := citaID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.IniciarAtencion(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) MarcarAtendida(c echo.Context) error {
	id, err := citaID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.MarcarAtendida(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Cancelar(c echo.Context) error {
	id, err := citaID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Cancelar(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) RegistrarCobroCaja(c echo.Context) error {
	id, err := citaID(c)
	if err != nil {
		return err
	}
	result, err := h.svc.RegistrarCobroCaja(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
