package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deleginsumos/deleginsumos/internal/domain"
	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
	"github.com/deleginsumos/deleginsumos/internal/domain/repository"
)

var _ repository.EntregaRepository = (*EntregaRepo)(nil)

const columnasEntregaCompleta = `id, codigo, empleado_id, insumo_id, cantidad, fecha_entrega,
	observaciones, entregado_por, empleado_nombre, empleado_cargo, empleado_departamento,
	empleado_cedula, insumo_nombre, insumo_categoria, insumo_unidad, insumo_precio, valor_total`

// EntregaRepo implementación del puerto EntregaRepository sobre SQLite.
// Las lecturas van por vw_entregas_completas; solo el INSERT y el DELETE tocan
// la tabla cruda.
type EntregaRepo struct {
	q Querier
}

// NewEntregaRepository construye el adaptador de persistencia para entregas.
func NewEntregaRepository(q Querier) *EntregaRepo {
	return &EntregaRepo{q: q}
}

// Create inserta la entrega. Los triggers de la BD validan el stock y lo
// descuentan en la misma transacción del INSERT; aquí no se resta nada.
func (r *EntregaRepo) Create(entrega *entity.Entrega) (int64, error) {
	if entrega.EntregadoPor == "" {
		entrega.EntregadoPor = entity.EntregadoPorDefecto
	}
	const intentos = 5
	for i := 0; i < intentos; i++ {
		if entrega.Codigo == "" || i > 0 {
			entrega.Codigo = domain.GenerarCodigoEntrega()
		}
		res, err := r.q.Exec(`
			INSERT INTO entregas (codigo, empleado_id, insumo_id, cantidad, observaciones, entregado_por)
			VALUES (?, ?, ?, ?, ?, ?)`,
			entrega.Codigo, entrega.EmpleadoID, entrega.InsumoID, entrega.Cantidad,
			nullString(entrega.Observaciones), entrega.EntregadoPor,
		)
		if err != nil {
			if esDuplicadoDe(err, "uq_entregas_codigo", "entregas.codigo") {
				continue
			}
			return 0, fmt.Errorf("insert entrega: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("insert entrega: %w", err)
		}
		entrega.ID = id
		auditar("entregas", "INSERT", id)
		return id, nil
	}
	return 0, fmt.Errorf("insert entrega: %w: sin código disponible", domain.ErrIntegrity)
}

// GetByID obtiene una entrega por ID desde la vista. Devuelve nil si no existe.
func (r *EntregaRepo) GetByID(id int64) (*entity.EntregaCompleta, error) {
	row := r.q.QueryRow(
		`SELECT `+columnasEntregaCompleta+` FROM vw_entregas_completas WHERE id = ?`, id)
	entrega, err := scanEntregaCompleta(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get entrega: %w", err)
	}
	return entrega, nil
}

// GetAll lista entregas recientes con paginación.
func (r *EntregaRepo) GetAll(limite, offset int) ([]*entity.EntregaCompleta, error) {
	return r.listar(`
		SELECT `+columnasEntregaCompleta+` FROM vw_entregas_completas
		ORDER BY fecha_entrega DESC LIMIT ? OFFSET ?`, limite, offset)
}

// GetByEmpleado lista las entregas hechas a un empleado.
func (r *EntregaRepo) GetByEmpleado(empleadoID int64) ([]*entity.EntregaCompleta, error) {
	return r.listar(`
		SELECT `+columnasEntregaCompleta+` FROM vw_entregas_completas
		WHERE empleado_id = ? ORDER BY fecha_entrega DESC`, empleadoID)
}

// GetByInsumo lista las entregas de un insumo.
func (r *EntregaRepo) GetByInsumo(insumoID int64) ([]*entity.EntregaCompleta, error) {
	return r.listar(`
		SELECT `+columnasEntregaCompleta+` FROM vw_entregas_completas
		WHERE insumo_id = ? ORDER BY fecha_entrega DESC`, insumoID)
}

// GetByRangoFechas lista entregas cuyo día cae dentro del rango [desde, hasta].
// Los días se comparan en UTC: fecha_entrega la fija CURRENT_TIMESTAMP (UTC),
// igual que el DATE('now') de Estadisticas.
func (r *EntregaRepo) GetByRangoFechas(desde, hasta time.Time) ([]*entity.EntregaCompleta, error) {
	return r.listar(`
		SELECT `+columnasEntregaCompleta+` FROM vw_entregas_completas
		WHERE DATE(fecha_entrega) BETWEEN ? AND ?
		ORDER BY fecha_entrega DESC`,
		desde.UTC().Format("2006-01-02"), hasta.UTC().Format("2006-01-02"))
}

// CountByInsumoEnFecha cuenta las entregas de un insumo en un día calendario UTC.
func (r *EntregaRepo) CountByInsumoEnFecha(insumoID int64, fecha time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(`
		SELECT COUNT(*) FROM entregas
		WHERE insumo_id = ? AND DATE(fecha_entrega) = ?`,
		insumoID, fecha.UTC().Format("2006-01-02"),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entregas por insumo: %w", err)
	}
	return n, nil
}

// Estadisticas agrega totales de hoy, de la semana y el insumo más pedido.
func (r *EntregaRepo) Estadisticas() (*entity.EstadisticasEntregas, error) {
	var est entity.EstadisticasEntregas
	err := r.q.QueryRow(`
		SELECT COUNT(*),
			SUM(CASE WHEN DATE(fecha_entrega) = DATE('now') THEN 1 ELSE 0 END),
			SUM(CASE WHEN DATE(fecha_entrega) >= DATE('now', '-6 days') THEN 1 ELSE 0 END)
		FROM entregas`).Scan(&est.TotalEntregas, &nullInt{&est.EntregasHoy}, &nullInt{&est.EntregasSemana})
	if err != nil {
		return nil, fmt.Errorf("estadisticas entregas: %w", err)
	}

	var masPedido sql.NullString
	err = r.q.QueryRow(`
		SELECT i.nombre
		FROM entregas e JOIN insumos i ON i.id = e.insumo_id
		GROUP BY e.insumo_id
		ORDER BY SUM(e.cantidad) DESC
		LIMIT 1`).Scan(&masPedido)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("insumo mas pedido: %w", err)
	}
	est.InsumoMasPedido = masPedido.String
	return &est, nil
}

// Delete elimina la fila de entrega. El stock que descontó su INSERT no se
// restaura; la corrección de stock es un ajuste manual aparte.
func (r *EntregaRepo) Delete(id int64) error {
	res, err := r.q.Exec(`DELETE FROM entregas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entrega: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entrega: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError("entrega", id)
	}
	auditar("entregas", "DELETE", id)
	return nil
}

func (r *EntregaRepo) listar(query string, args ...any) ([]*entity.EntregaCompleta, error) {
	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entregas: %w", err)
	}
	defer rows.Close()

	var list []*entity.EntregaCompleta
	for rows.Next() {
		entrega, err := scanEntregaCompleta(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entrega: %w", err)
		}
		list = append(list, entrega)
	}
	return list, rows.Err()
}

func scanEntregaCompleta(row filaScanner) (*entity.EntregaCompleta, error) {
	var e entity.EntregaCompleta
	var codigo, fecha, observaciones sql.NullString
	var cargo, departamento sql.NullString
	err := row.Scan(
		&e.ID, &codigo, &e.EmpleadoID, &e.InsumoID, &e.Cantidad, &fecha,
		&observaciones, &e.EntregadoPor, &e.EmpleadoNombre, &cargo, &departamento,
		&e.EmpleadoCedula, &e.InsumoNombre, &e.InsumoCategoria, &e.InsumoUnidad,
		&e.InsumoPrecio, &e.ValorTotal,
	)
	if err != nil {
		return nil, err
	}
	e.Codigo = codigo.String
	e.FechaEntrega = parseTiempo(fecha)
	e.Observaciones = observaciones.String
	e.EmpleadoCargo = cargo.String
	e.EmpleadoDepartamento = departamento.String
	return &e, nil
}

// nullInt adapta un *int para tolerar SUM() NULL sobre tabla vacía.
type nullInt struct{ dest *int }

func (n *nullInt) Scan(v any) error {
	var ni sql.NullInt64
	if err := ni.Scan(v); err != nil {
		return err
	}
	*n.dest = int(ni.Int64)
	return nil
}
