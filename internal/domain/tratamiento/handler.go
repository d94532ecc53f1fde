package tratamiento

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
	api.GET("/tratamientos", h.List)
	api.GET("/tratamientos/:id", h.Get)
	api.POST("/tratamientos", h.Create)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := ListFilter{
		Q:           c.QueryParam("q"),
		SoloActivos: c.QueryParam("solo_activos") == "true",
	}
	items, total, err := h.svc.List(c.Request().Context(), filter, pg.PageSize, pg.Offset())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Tratamiento{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.Validation("El id del tratamiento debe ser un entero válido")
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Create(c echo.Context) error {
	var in CrearTratamientoInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("cuerpo de la petición inválido")
	}
	t, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}
