package medico

import (
	"context"
	"errors"

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

const medicoCols = `id_medico, nombre, apellidos, especialidad, cedula_profesional, activo`

func scanMedico(row pgx.Row) (*Medico, error) {
	var m Medico
	err := row.Scan(&m.IDMedico, &m.Nombre, &m.Apellidos, &m.Especialidad, &m.CedulaProfesional, &m.Activo)
	return &m, err
}

func (r *repoPG) List(ctx context.Context) ([]*Medico, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+medicoCols+` FROM medico ORDER BY nombre, apellidos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Medico
	for rows.Next() {
		m, err := scanMedico(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Medico, error) {
	m, err := scanMedico(r.conn(ctx).QueryRow(ctx, `SELECT `+medicoCols+` FROM medico WHERE id_medico = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) Create(ctx context.Context, m *Medico) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medico (nombre, apellidos, especialidad, cedula_profesional, activo)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id_medico`,
		m.Nombre, m.Apellidos, m.Especialidad, m.CedulaProfesional, m.Activo).Scan(&m.IDMedico)
}
