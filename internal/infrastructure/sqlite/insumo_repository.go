package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/deleginsumos/deleginsumos/internal/domain"
	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
	"github.com/deleginsumos/deleginsumos/internal/domain/repository"
)

var _ repository.InsumoRepository = (*InsumoRepo)(nil)

const columnasInsumo = `id, codigo, nombre, categoria, cantidad_actual, cantidad_minima,
	cantidad_maxima, unidad_medida, precio_unitario, proveedor, activo,
	fecha_creacion, fecha_actualizacion`

// camposActualizablesInsumo allowlist de columnas que acepta Update.
var camposActualizablesInsumo = map[string]string{
	"nombre":          "nombre",
	"categoria":       "categoria",
	"cantidad_minima": "cantidad_minima",
	"cantidad_maxima": "cantidad_maxima",
	"unidad_medida":   "unidad_medida",
	"precio_unitario": "precio_unitario",
	"proveedor":       "proveedor",
	"activo":          "activo",
}

// InsumoRepo implementación del puerto InsumoRepository sobre SQLite (usable con store o tx).
type InsumoRepo struct {
	q Querier
}

// NewInsumoRepository construye el adaptador de persistencia para insumos. Pasar store o tx (Querier).
func NewInsumoRepository(q Querier) *InsumoRepo {
	return &InsumoRepo{q: q}
}

// Create persiste un insumo nuevo asignándole un código público fresco.
// Reintenta ante colisión de código; un nombre repetido entre activos se
// traduce a error de duplicado con el campo nombrado.
func (r *InsumoRepo) Create(insumo *entity.Insumo) (int64, error) {
	const intentos = 5
	for i := 0; i < intentos; i++ {
		if insumo.Codigo == "" || i > 0 {
			insumo.Codigo = domain.GenerarCodigoInsumo()
		}
		res, err := r.q.Exec(`
			INSERT INTO insumos (codigo, nombre, categoria, cantidad_actual, cantidad_minima,
				cantidad_maxima, unidad_medida, precio_unitario, proveedor, activo)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			insumo.Codigo, insumo.Nombre, insumo.Categoria, insumo.CantidadActual,
			insumo.CantidadMinima, insumo.CantidadMaxima, insumo.UnidadMedida,
			insumo.PrecioUnitario, nullString(insumo.Proveedor), insumo.Activo,
		)
		if err != nil {
			if esDuplicadoDe(err, "uq_insumos_codigo", "insumos.codigo") {
				continue
			}
			if isUniqueViolation(err) {
				return 0, domain.NewDuplicateError("insumo", "nombre", insumo.Nombre)
			}
			return 0, fmt.Errorf("insert insumo: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("insert insumo: %w", err)
		}
		insumo.ID = id
		auditar("insumos", "INSERT", id)
		return id, nil
	}
	return 0, fmt.Errorf("insert insumo: %w: sin código disponible", domain.ErrIntegrity)
}

// GetByID obtiene un insumo por ID. Devuelve nil si no existe.
func (r *InsumoRepo) GetByID(id int64) (*entity.Insumo, error) {
	row := r.q.QueryRow(`SELECT `+columnasInsumo+` FROM insumos WHERE id = ?`, id)
	insumo, err := scanInsumo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get insumo: %w", err)
	}
	return insumo, nil
}

// GetByCodigo obtiene un insumo por su código público. Devuelve nil si no existe.
func (r *InsumoRepo) GetByCodigo(codigo string) (*entity.Insumo, error) {
	row := r.q.QueryRow(`SELECT `+columnasInsumo+` FROM insumos WHERE codigo = ?`, codigo)
	insumo, err := scanInsumo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get insumo por codigo: %w", err)
	}
	return insumo, nil
}

// GetAll lista insumos; con soloActivos filtra los dados de baja.
func (r *InsumoRepo) GetAll(soloActivos bool) ([]*entity.Insumo, error) {
	query := `SELECT ` + columnasInsumo + ` FROM insumos`
	if soloActivos {
		query += ` WHERE activo = 1`
	}
	query += ` ORDER BY nombre`
	return r.listar(query)
}

// GetByCategoria lista insumos activos de una categoría.
func (r *InsumoRepo) GetByCategoria(categoria string) ([]*entity.Insumo, error) {
	return r.listar(
		`SELECT `+columnasInsumo+` FROM insumos WHERE categoria = ? AND activo = 1 ORDER BY nombre`,
		categoria,
	)
}

// Search busca por subcadena (sin distinguir mayúsculas) en nombre, categoría y proveedor.
func (r *InsumoRepo) Search(termino string, soloActivos bool) ([]*entity.Insumo, error) {
	patron := "%" + strings.ToLower(termino) + "%"
	query := `SELECT ` + columnasInsumo + ` FROM insumos
		WHERE (lower(nombre) LIKE ? OR lower(categoria) LIKE ? OR lower(COALESCE(proveedor, '')) LIKE ?)`
	if soloActivos {
		query += ` AND activo = 1`
	}
	query += ` ORDER BY nombre`
	return r.listar(query, patron, patron, patron)
}

// Update reescribe solo las columnas presentes en campos. Devuelve false si no
// había nada que cambiar; error de no-encontrado si el id no existe.
func (r *InsumoRepo) Update(id int64, campos map[string]any) (bool, error) {
	existente, err := r.GetByID(id)
	if err != nil {
		return false, err
	}
	if existente == nil {
		return false, domain.NewNotFoundError("insumo", id)
	}

	var sets []string
	var args []any
	for campo, valor := range campos {
		col, ok := camposActualizablesInsumo[campo]
		if !ok {
			continue
		}
		sets = append(sets, col+" = ?")
		args = append(args, valor)
	}
	if len(sets) == 0 {
		return false, nil
	}
	args = append(args, id)

	_, err = r.q.Exec(`UPDATE insumos SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, domain.NewDuplicateError("insumo", "nombre", fmt.Sprint(campos["nombre"]))
		}
		return false, fmt.Errorf("update insumo: %w", err)
	}
	auditar("insumos", "UPDATE", id)
	return true, nil
}

// UpdateStock fija la cantidad actual (ajuste manual; las entregas descuentan vía trigger).
func (r *InsumoRepo) UpdateStock(id int64, cantidad int) error {
	res, err := r.q.Exec(`UPDATE insumos SET cantidad_actual = ? WHERE id = ?`, cantidad, id)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: stock negativo", domain.ErrIntegrity)
		}
		return fmt.Errorf("update stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError("insumo", id)
	}
	auditar("insumos", "UPDATE", id)
	return nil
}

// Delete da de baja (suave) o elimina (duro, con cascada de entregas) un insumo.
func (r *InsumoRepo) Delete(id int64, duro bool) error {
	var res sql.Result
	var err error
	if duro {
		res, err = r.q.Exec(`DELETE FROM insumos WHERE id = ?`, id)
	} else {
		res, err = r.q.Exec(`UPDATE insumos SET activo = 0 WHERE id = ?`, id)
	}
	if err != nil {
		return fmt.Errorf("delete insumo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete insumo: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError("insumo", id)
	}
	auditar("insumos", "DELETE", id)
	return nil
}

// Categorias lista las categorías distintas de los insumos activos.
func (r *InsumoRepo) Categorias() ([]string, error) {
	rows, err := r.q.Query(`SELECT DISTINCT categoria FROM insumos WHERE activo = 1 ORDER BY categoria`)
	if err != nil {
		return nil, fmt.Errorf("listar categorias: %w", err)
	}
	defer rows.Close()

	var categorias []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan categoria: %w", err)
		}
		categorias = append(categorias, c)
	}
	return categorias, rows.Err()
}

// ResumenPorCategoria lee los agregados por categoría de vw_resumen_inventario.
func (r *InsumoRepo) ResumenPorCategoria() ([]*entity.ResumenCategoria, error) {
	rows, err := r.q.Query(`
		SELECT categoria, total_insumos, stock_total, valor_total, insumos_criticos, insumos_bajos
		FROM vw_resumen_inventario ORDER BY categoria`)
	if err != nil {
		return nil, fmt.Errorf("resumen inventario: %w", err)
	}
	defer rows.Close()

	var resumen []*entity.ResumenCategoria
	for rows.Next() {
		var rc entity.ResumenCategoria
		if err := rows.Scan(&rc.Categoria, &rc.TotalInsumos, &rc.StockTotal,
			&rc.ValorTotal, &rc.InsumosCriticos, &rc.InsumosBajos); err != nil {
			return nil, fmt.Errorf("scan resumen: %w", err)
		}
		resumen = append(resumen, &rc)
	}
	return resumen, rows.Err()
}

// StockAlerts lee el estado de stock por insumo activo de vw_stock_alerts.
func (r *InsumoRepo) StockAlerts() ([]*entity.AlertaStock, error) {
	rows, err := r.q.Query(`
		SELECT id, nombre, categoria, cantidad_actual, cantidad_minima, estado
		FROM vw_stock_alerts`)
	if err != nil {
		return nil, fmt.Errorf("stock alerts: %w", err)
	}
	defer rows.Close()

	var alertas []*entity.AlertaStock
	for rows.Next() {
		var a entity.AlertaStock
		if err := rows.Scan(&a.ID, &a.Nombre, &a.Categoria,
			&a.CantidadActual, &a.CantidadMinima, &a.Estado); err != nil {
			return nil, fmt.Errorf("scan stock alert: %w", err)
		}
		alertas = append(alertas, &a)
	}
	return alertas, rows.Err()
}

func (r *InsumoRepo) listar(query string, args ...any) ([]*entity.Insumo, error) {
	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list insumos: %w", err)
	}
	defer rows.Close()

	var list []*entity.Insumo
	for rows.Next() {
		insumo, err := scanInsumo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan insumo: %w", err)
		}
		list = append(list, insumo)
	}
	return list, rows.Err()
}

// filaScanner cubre *sql.Row y *sql.Rows.
type filaScanner interface {
	Scan(dest ...any) error
}

func scanInsumo(row filaScanner) (*entity.Insumo, error) {
	var i entity.Insumo
	var codigo, proveedor, creacion, actualizacion sql.NullString
	err := row.Scan(
		&i.ID, &codigo, &i.Nombre, &i.Categoria, &i.CantidadActual, &i.CantidadMinima,
		&i.CantidadMaxima, &i.UnidadMedida, &i.PrecioUnitario, &proveedor, &i.Activo,
		&creacion, &actualizacion,
	)
	if err != nil {
		return nil, err
	}
	i.Codigo = codigo.String
	i.Proveedor = proveedor.String
	i.FechaCreacion = parseTiempo(creacion)
	i.FechaActualizacion = parseTiempo(actualizacion)
	return &i, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
