package paciente

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const pacienteCols = `id_paciente, nombre, apellidos, to_char(fecha_nacimiento, 'YYYY-MM-DD'),
	telefono, email, canal_preferente, fecha_registro`

func scanPaciente(row pgx.Row) (*Paciente, error) {
	var p Paciente
	err := row.Scan(&p.IDPaciente, &p.Nombre, &p.Apellidos, &p.FechaNacimiento,
		&p.Telefono, &p.Email, &p.CanalPreferente, &p.FechaRegistro)
	return &p, err
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Paciente, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if filter.Q != "" {
		where += fmt.Sprintf(` AND (nombre ILIKE $%d OR apellidos ILIKE $%d OR email ILIKE $%d)`, idx, idx, idx)
		args = append(args, "%"+filter.Q+"%")
		idx++
	}
	if filter.CanalPreferente != "" {
		where += fmt.Sprintf(` AND canal_preferente = $%d`, idx)
		args = append(args, filter.CanalPreferente)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM paciente`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + pacienteCols + ` FROM paciente` + where +
		fmt.Sprintf(` ORDER BY fecha_registro DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Paciente
	for rows.Next() {
		p, err := scanPaciente(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Paciente, error) {
	p, err := scanPaciente(r.conn(ctx).QueryRow(ctx, `SELECT `+pacienteCols+` FROM paciente WHERE id_paciente = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Paciente) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO paciente (nombre, apellidos, fecha_nacimiento, telefono, email, canal_preferente)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id_paciente, fecha_registro`,
		p.Nombre, p.Apellidos, p.FechaNacimiento, p.Telefono, p.Email, p.CanalPreferente).
		Scan(&p.IDPaciente, &p.FechaRegistro)
}

func (r *repoPG) Update(ctx context.Context, id int64, in ActualizarPacienteInput) (int64, error) {
	var sets []string
	var args []interface{}
	idx := 1

	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf(`%s = $%d`, col, idx))
		args = append(args, val)
		idx++
	}
	if in.Nombre != nil {
		add("nombre", *in.Nombre)
	}
	if in.Apellidos != nil {
		add("apellidos", *in.Apellidos)
	}
	if in.FechaNacimiento != nil {
		add("fecha_nacimiento", *in.FechaNacimiento)
	}
	if in.Telefono != nil {
		add("telefono", *in.Telefono)
	}
	if in.Email != nil {
		add("email", *in.Email)
	}
	if in.CanalPreferente != nil {
		add("canal_preferente", *in.CanalPreferente)
	}
	if len(sets) == 0 {
		return 0, nil
	}

	args = append(args, id)
	tag, err := r.conn(ctx).Exec(ctx,
		fmt.Sprintf(`UPDATE paciente SET %s WHERE id_paciente = $%d`, strings.Join(sets, ", "), idx),
		args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
