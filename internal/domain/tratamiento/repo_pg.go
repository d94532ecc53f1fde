package tratamiento

import (
	"context"
	"errors"
	"fmt"

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

const tratamientoCols = `id_tratamiento, cve_trat, nombre, descripcion, precio_base, duracion_min, activo`

func scanTratamiento(row pgx.Row) (*Tratamiento, error) {
	var t Tratamiento
	err := row.Scan(&t.IDTratamiento, &t.CveTrat, &t.Nombre, &t.Descripcion, &t.PrecioBase, &t.DuracionMin, &t.Activo)
	return &t, err
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Tratamiento, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if filter.Q != "" {
		where += fmt.Sprintf(` AND (nombre ILIKE $%d OR cve_trat ILIKE $%d)`, idx, idx)
		args = append(args, "%"+filter.Q+"%")
		idx++
	}
	if filter.SoloActivos {
		where += ` AND activo`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tratamiento`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + tratamientoCols + ` FROM tratamiento` + where +
		fmt.Sprintf(` ORDER BY nombre ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Tratamiento
	for rows.Next() {
		t, err := scanTratamiento(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Tratamiento, error) {
	t, err := scanTratamiento(r.conn(ctx).QueryRow(ctx, `SELECT `+tratamientoCols+` FROM tratamiento WHERE id_tratamiento = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repoPG) Create(ctx context.Context, t *Tratamiento) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO tratamiento (cve_trat, nombre, descripcion, precio_base, duracion_min, activo)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id_tratamiento`,
		t.CveTrat, t.Nombre, t.Descripcion, t.PrecioBase, t.DuracionMin, t.Activo).Scan(&t.IDTratamiento)
}
