package cita

import "context"

// Repository is the persistence boundary for appointments, deposits and the
// payment ledger. Single-row lookups return (nil, nil) when no row matches;
// updates report whether a row was touched.
type Repository interface {
	Create(ctx context.Context, c *Cita) error
	CreateAnticipo(ctx context.Context, a *Anticipo) error
	GetByID(ctx context.Context, id int64) (*Cita, error)
	GetDetalle(ctx context.Context, id int64) (*DetalleCita, error)

	List(ctx context.Context, filter ListFilter) ([]*CitaListItem, error)
	ListResumen(ctx context.Context, filter ListFilter, limit, offset int) ([]*CitaListItem, int, error)

	UpdateEstado(ctx context.Context, id int64, estado Estado) (bool, error)

	PendingAnticipo(ctx context.Context, idCita int64) (*Anticipo, error)
	MarkAnticipoPagado(ctx context.Context, idAnticipo int64, idPagoCaja string) error
	MarkCitaPagada(ctx context.Context, idCita int64, idPagoCaja string, montoPagado *float64) error

	CreatePago(ctx context.Context, p *Pago) error
	UpdateMontos(ctx context.Context, idCita int64, montoPagado, saldoPendiente float64, estadoPago EstadoPago) error

	MedicoTieneCitaEnRango(ctx context.Context, idMedico int64, fecha FechaHora, minAntes, minDespues int) (bool, error)
	PacienteTieneCitaExacta(ctx context.Context, idPaciente int64, fecha FechaHora) (bool, error)
}
