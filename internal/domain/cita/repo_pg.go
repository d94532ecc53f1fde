package cita

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sigcd/gestion-citas/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// IsBookingConflict reports whether err is the schema-level double-booking
// backstop firing: the partial unique index on (id_paciente, fecha_cita) or
// the doctor time-range exclusion constraint.
func IsBookingConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" || pgErr.Code == "23P01"
}

func (r *repoPG) Create(ctx context.Context, c *Cita) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO cita (folio_cita, id_paciente, id_medico, id_tratamiento, fecha_cita,
			medio_solicitud, motivo_cita, info_relevante, observaciones, responsable_registro,
			estado_cita, estado_pago, monto_cobro)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id_cita, fecha_registro`,
		c.FolioCita, c.IDPaciente, c.IDMedico, c.IDTratamiento, c.FechaCita,
		c.MedioSolicitud, c.MotivoCita, c.InfoRelevante, c.Observaciones, c.ResponsableRegistro,
		c.EstadoCita, c.EstadoPago, c.MontoCobro).
		Scan(&c.IDCita, &c.FechaRegistro)
}

func (r *repoPG) CreateAnticipo(ctx context.Context, a *Anticipo) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO anticipo_cita (id_cita, id_paciente, monto_anticipo, estado, id_pago_caja, fecha_solicitud)
		VALUES ($1,$2,$3,$4,$5,NOW())
		RETURNING id_anticipo, fecha_solicitud`,
		a.IDCita, a.IDPaciente, a.MontoAnticipo, a.Estado, a.IDPagoCaja).
		Scan(&a.IDAnticipo, &a.FechaSolicitud)
}

const citaCols = `id_cita, folio_cita, id_paciente, id_medico, id_tratamiento, fecha_cita,
	medio_solicitud, motivo_cita, info_relevante, observaciones, responsable_registro,
	estado_cita, estado_pago, monto_cobro, COALESCE(monto_pagado, 0), saldo_pendiente,
	id_pago_caja, fecha_registro`

func scanCita(row pgx.Row) (*Cita, error) {
	var c Cita
	err := row.Scan(&c.IDCita, &c.FolioCita, &c.IDPaciente, &c.IDMedico, &c.IDTratamiento, &c.FechaCita,
		&c.MedioSolicitud, &c.MotivoCita, &c.InfoRelevante, &c.Observaciones, &c.ResponsableRegistro,
		&c.EstadoCita, &c.EstadoPago, &c.MontoCobro, &c.MontoPagado, &c.SaldoPendiente,
		&c.IDPagoCaja, &c.FechaRegistro)
	return &c, err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Cita, error) {
	c, err := scanCita(r.conn(ctx).QueryRow(ctx, `SELECT `+citaCols+` FROM cita WHERE id_cita = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repoPG) GetDetalle(ctx context.Context, id int64) (*DetalleCita, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT
			c.id_cita, c.folio_cita, c.fecha_registro, c.fecha_cita,
			c.estado_cita, c.estado_pago, c.monto_cobro, COALESCE(c.monto_pagado, 0),
			c.saldo_pendiente, COALESCE(c.saldo_paciente, 0),
			p.id_paciente, p.nombre, p.apellidos, p.telefono, p.email, p.canal_preferente,
			m.id_medico, m.nombre, m.apellidos, m.especialidad, m.cedula_profesional,
			t.id_tratamiento, t.cve_trat, t.nombre, t.descripcion, t.precio_base, t.duracion_min,
			a.id_anticipo, a.monto_anticipo, a.estado, a.id_pago_caja, a.fecha_solicitud, a.fecha_confirmacion
		FROM cita c
		INNER JOIN paciente p     ON p.id_paciente    = c.id_paciente
		INNER JOIN medico m       ON m.id_medico      = c.id_medico
		INNER JOIN tratamiento t  ON t.id_tratamiento = c.id_tratamiento
		LEFT JOIN anticipo_cita a ON a.id_cita        = c.id_cita
		WHERE c.id_cita = $1
		ORDER BY a.fecha_solicitud DESC
		LIMIT 1`, id)

	var d DetalleCita
	var antID *int64
	var antMonto *float64
	var antEstado, antPagoCaja *string
	var antSolicitud, antConfirmacion *time.Time
	err := row.Scan(
		&d.IDCita, &d.FolioCita, &d.FechaRegistro, &d.FechaCita,
		&d.EstadoCita, &d.EstadoPago, &d.MontoCobro, &d.MontoPagado,
		&d.SaldoPendiente, &d.SaldoPaciente,
		&d.Paciente.IDPaciente, &d.Paciente.Nombre, &d.Paciente.Apellidos,
		&d.Paciente.Telefono, &d.Paciente.Email, &d.Paciente.CanalPreferente,
		&d.Medico.IDMedico, &d.Medico.Nombre, &d.Medico.Apellidos,
		&d.Medico.Especialidad, &d.Medico.CedulaProfesional,
		&d.Tratamiento.IDTratamiento, &d.Tratamiento.CveTrat, &d.Tratamiento.Nombre,
		&d.Tratamiento.Descripcion, &d.Tratamiento.PrecioBase, &d.Tratamiento.DuracionMin,
		&antID, &antMonto, &antEstado, &antPagoCaja, &antSolicitud, &antConfirmacion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if antID != nil {
		d.Anticipo = &Anticipo{
			IDAnticipo:        *antID,
			IDCita:            d.IDCita,
			IDPaciente:        d.Paciente.IDPaciente,
			MontoAnticipo:     *antMonto,
			Estado:            *antEstado,
			IDPagoCaja:        antPagoCaja,
			FechaSolicitud:    *antSolicitud,
			FechaConfirmacion: antConfirmacion,
		}
	}
	return &d, nil
}

func buildCitaFilter(filter ListFilter) (string, []interface{}, int) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	add := func(cond string, val interface{}) {
		where += fmt.Sprintf(cond, idx)
		args = append(args, val)
		idx++
	}
	if filter.FechaDesde != nil {
		add(` AND c.fecha_cita >= $%d`, *filter.FechaDesde)
	}
	if filter.FechaHasta != nil {
		add(` AND c.fecha_cita <= $%d`, *filter.FechaHasta)
	}
	if filter.EstadoCita != "" {
		add(` AND c.estado_cita = $%d`, filter.EstadoCita)
	}
	if filter.EstadoPago != "" {
		add(` AND c.estado_pago = $%d`, filter.EstadoPago)
	}
	if filter.IDPaciente != 0 {
		add(` AND c.id_paciente = $%d`, filter.IDPaciente)
	}
	if filter.IDMedico != 0 {
		add(` AND c.id_medico = $%d`, filter.IDMedico)
	}
	return where, args, idx
}

const listCols = `
	c.id_cita, c.folio_cita, c.fecha_cita, c.estado_cita, c.estado_pago, c.monto_cobro,
	p.id_paciente, p.nombre, p.apellidos,
	m.id_medico, m.nombre, m.apellidos`

const listFrom = `
	FROM cita c
	INNER JOIN paciente p ON p.id_paciente = c.id_paciente
	INNER JOIN medico m   ON m.id_medico   = c.id_medico`

func scanListItem(rows pgx.Rows) (*CitaListItem, error) {
	var it CitaListItem
	err := rows.Scan(&it.IDCita, &it.FolioCita, &it.FechaCita, &it.EstadoCita, &it.EstadoPago, &it.MontoCobro,
		&it.IDPaciente, &it.NombrePaciente, &it.ApellidosPaciente,
		&it.IDMedico, &it.NombreMedico, &it.ApellidosMedico)
	return &it, err
}

func (r *repoPG) List(ctx context.Context, filter ListFilter) ([]*CitaListItem, error) {
	where, args, _ := buildCitaFilter(filter)
	rows, err := r.conn(ctx).Query(ctx, `SELECT`+listCols+listFrom+where+` ORDER BY c.fecha_cita DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*CitaListItem
	for rows.Next() {
		it, err := scanListItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repoPG) ListResumen(ctx context.Context, filter ListFilter, limit, offset int) ([]*CitaListItem, int, error) {
	where, args, idx := buildCitaFilter(filter)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+listFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT` + listCols + listFrom + where +
		fmt.Sprintf(` ORDER BY c.fecha_cita DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*CitaListItem
	for rows.Next() {
		it, err := scanListItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

func (r *repoPG) UpdateEstado(ctx context.Context, id int64, estado Estado) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE cita SET estado_cita = $1 WHERE id_cita = $2`, estado, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) PendingAnticipo(ctx context.Context, idCita int64) (*Anticipo, error) {
	var a Anticipo
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id_anticipo, id_cita, id_paciente, monto_anticipo, estado, id_pago_caja,
			fecha_solicitud, fecha_confirmacion
		FROM anticipo_cita
		WHERE id_cita = $1 AND estado = 'PENDIENTE'
		ORDER BY fecha_solicitud DESC
		LIMIT 1`, idCita).
		Scan(&a.IDAnticipo, &a.IDCita, &a.IDPaciente, &a.MontoAnticipo, &a.Estado, &a.IDPagoCaja,
			&a.FechaSolicitud, &a.FechaConfirmacion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) MarkAnticipoPagado(ctx context.Context, idAnticipo int64, idPagoCaja string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE anticipo_cita
		SET estado = 'PAGADO', id_pago_caja = $1, fecha_confirmacion = NOW()
		WHERE id_anticipo = $2`, idPagoCaja, idAnticipo)
	return err
}

func (r *repoPG) MarkCitaPagada(ctx context.Context, idCita int64, idPagoCaja string, montoPagado *float64) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE cita
		SET estado_pago = 'PAGADO', id_pago_caja = $1, monto_pagado = COALESCE($2, monto_pagado)
		WHERE id_cita = $3`, idPagoCaja, montoPagado, idCita)
	return err
}

func (r *repoPG) CreatePago(ctx context.Context, p *Pago) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO pago_cita (id_cita, id_paciente, monto, origen, id_pago_caja, observaciones)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id_pago_cita, fecha_pago`,
		p.IDCita, p.IDPaciente, p.Monto, p.Origen, p.IDPagoCaja, p.Observaciones).
		Scan(&p.IDPagoCita, &p.FechaPago)
}

func (r *repoPG) UpdateMontos(ctx context.Context, idCita int64, montoPagado, saldoPendiente float64, estadoPago EstadoPago) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE cita
		SET monto_pagado = $1, saldo_pendiente = $2, estado_pago = $3
		WHERE id_cita = $4`, montoPagado, saldoPendiente, estadoPago, idCita)
	return err
}

func (r *repoPG) MedicoTieneCitaEnRango(ctx context.Context, idMedico int64, fecha FechaHora, minAntes, minDespues int) (bool, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM cita
		WHERE id_medico = $1
		  AND estado_cita <> 'CANCELADA'
		  AND fecha_cita BETWEEN $2::timestamp - make_interval(mins => $3)
		                     AND $2::timestamp + make_interval(mins => $4)`,
		idMedico, fecha, minAntes, minDespues).Scan(&total)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

func (r *repoPG) PacienteTieneCitaExacta(ctx context.Context, idPaciente int64, fecha FechaHora) (bool, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM cita
		WHERE id_paciente = $1
		  AND estado_cita <> 'CANCELADA'
		  AND fecha_cita = $2`, idPaciente, fecha).Scan(&total)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}
