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

var _ repository.EmpleadoRepository = (*EmpleadoRepo)(nil)

const columnasEmpleado = `id, codigo, nombre_completo, cargo, departamento, cedula,
	email, telefono, nota, activo, fecha_creacion`

var camposActualizablesEmpleado = map[string]string{
	"nombre_completo": "nombre_completo",
	"cargo":           "cargo",
	"departamento":    "departamento",
	"cedula":          "cedula",
	"email":           "email",
	"telefono":        "telefono",
	"nota":            "nota",
	"activo":          "activo",
}

// EmpleadoRepo implementación del puerto EmpleadoRepository sobre SQLite (usable con store o tx).
type EmpleadoRepo struct {
	q Querier
}

// NewEmpleadoRepository construye el adaptador de persistencia para empleados.
func NewEmpleadoRepository(q Querier) *EmpleadoRepo {
	return &EmpleadoRepo{q: q}
}

// Create persiste un empleado nuevo con código público fresco. Una cédula
// repetida se traduce a error de duplicado nombrando el campo y el valor.
func (r *EmpleadoRepo) Create(empleado *entity.Empleado) (int64, error) {
	const intentos = 5
	for i := 0; i < intentos; i++ {
		if empleado.Codigo == "" || i > 0 {
			empleado.Codigo = domain.GenerarCodigoEmpleado()
		}
		res, err := r.q.Exec(`
			INSERT INTO empleados (codigo, nombre_completo, cargo, departamento, cedula, email, telefono, nota, activo)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			empleado.Codigo, empleado.NombreCompleto, nullString(empleado.Cargo),
			nullString(empleado.Departamento), empleado.Cedula, nullString(empleado.Email),
			nullString(empleado.Telefono), nullString(empleado.Nota), empleado.Activo,
		)
		if err != nil {
			if esDuplicadoDe(err, "uq_empleados_codigo", "empleados.codigo") {
				continue
			}
			if isUniqueViolation(err) {
				return 0, domain.NewDuplicateError("empleado", "cedula", empleado.Cedula)
			}
			return 0, fmt.Errorf("insert empleado: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("insert empleado: %w", err)
		}
		empleado.ID = id
		auditar("empleados", "INSERT", id)
		return id, nil
	}
	return 0, fmt.Errorf("insert empleado: %w: sin código disponible", domain.ErrIntegrity)
}

// GetByID obtiene un empleado por ID. Devuelve nil si no existe.
func (r *EmpleadoRepo) GetByID(id int64) (*entity.Empleado, error) {
	row := r.q.QueryRow(`SELECT `+columnasEmpleado+` FROM empleados WHERE id = ?`, id)
	empleado, err := scanEmpleado(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get empleado: %w", err)
	}
	return empleado, nil
}

// GetByCedula obtiene un empleado por cédula (coincidencia exacta). Devuelve nil si no existe.
func (r *EmpleadoRepo) GetByCedula(cedula string) (*entity.Empleado, error) {
	row := r.q.QueryRow(`SELECT `+columnasEmpleado+` FROM empleados WHERE cedula = ?`, cedula)
	empleado, err := scanEmpleado(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get empleado por cedula: %w", err)
	}
	return empleado, nil
}

// GetAll lista empleados; con soloActivos filtra los dados de baja.
func (r *EmpleadoRepo) GetAll(soloActivos bool) ([]*entity.Empleado, error) {
	query := `SELECT ` + columnasEmpleado + ` FROM empleados`
	if soloActivos {
		query += ` WHERE activo = 1`
	}
	query += ` ORDER BY nombre_completo`
	return r.listar(query)
}

// GetByDepartamento lista empleados activos de un departamento.
func (r *EmpleadoRepo) GetByDepartamento(departamento string) ([]*entity.Empleado, error) {
	return r.listar(
		`SELECT `+columnasEmpleado+` FROM empleados
		 WHERE departamento = ? AND activo = 1 ORDER BY nombre_completo`,
		departamento,
	)
}

// Search busca por subcadena (sin distinguir mayúsculas) en nombre, cédula, cargo y departamento.
func (r *EmpleadoRepo) Search(termino string, soloActivos bool) ([]*entity.Empleado, error) {
	patron := "%" + strings.ToLower(termino) + "%"
	query := `SELECT ` + columnasEmpleado + ` FROM empleados
		WHERE (lower(nombre_completo) LIKE ? OR cedula LIKE ?
			OR lower(COALESCE(cargo, '')) LIKE ? OR lower(COALESCE(departamento, '')) LIKE ?)`
	if soloActivos {
		query += ` AND activo = 1`
	}
	query += ` ORDER BY nombre_completo`
	return r.listar(query, patron, patron, patron, patron)
}

// Update reescribe solo las columnas presentes en campos. Devuelve false si no
// había nada que cambiar; error de no-encontrado si el id no existe.
func (r *EmpleadoRepo) Update(id int64, campos map[string]any) (bool, error) {
	existente, err := r.GetByID(id)
	if err != nil {
		return false, err
	}
	if existente == nil {
		return false, domain.NewNotFoundError("empleado", id)
	}

	var sets []string
	var args []any
	for campo, valor := range campos {
		col, ok := camposActualizablesEmpleado[campo]
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

	_, err = r.q.Exec(`UPDATE empleados SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, domain.NewDuplicateError("empleado", "cedula", fmt.Sprint(campos["cedula"]))
		}
		return false, fmt.Errorf("update empleado: %w", err)
	}
	auditar("empleados", "UPDATE", id)
	return true, nil
}

// Delete da de baja (suave) o elimina (duro) un empleado. El modo duro se
// rechaza con error de negocio si tiene entregas, antes de que la BD levante
// el error FK crudo.
func (r *EmpleadoRepo) Delete(id int64, duro bool) error {
	var res sql.Result
	var err error
	if duro {
		n, err := r.CountEntregas(id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.NewBusinessError(
				fmt.Sprintf("el empleado tiene %d entregas registradas; use baja suave", n))
		}
		res, err = r.q.Exec(`DELETE FROM empleados WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete empleado: %w", err)
		}
		return r.verificarAfectadas(res, id, "DELETE")
	}
	res, err = r.q.Exec(`UPDATE empleados SET activo = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete empleado: %w", err)
	}
	return r.verificarAfectadas(res, id, "DELETE")
}

func (r *EmpleadoRepo) verificarAfectadas(res sql.Result, id int64, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete empleado: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError("empleado", id)
	}
	auditar("empleados", op, id)
	return nil
}

// Departamentos lista los departamentos distintos de los empleados activos.
func (r *EmpleadoRepo) Departamentos() ([]string, error) {
	rows, err := r.q.Query(`
		SELECT DISTINCT departamento FROM empleados
		WHERE activo = 1 AND departamento IS NOT NULL AND departamento != ''
		ORDER BY departamento`)
	if err != nil {
		return nil, fmt.Errorf("listar departamentos: %w", err)
	}
	defer rows.Close()

	var departamentos []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan departamento: %w", err)
		}
		departamentos = append(departamentos, d)
	}
	return departamentos, rows.Err()
}

// CountEntregas cuenta las entregas registradas a un empleado.
func (r *EmpleadoRepo) CountEntregas(id int64) (int, error) {
	var n int
	err := r.q.QueryRow(`SELECT COUNT(*) FROM entregas WHERE empleado_id = ?`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entregas de empleado: %w", err)
	}
	return n, nil
}

func (r *EmpleadoRepo) listar(query string, args ...any) ([]*entity.Empleado, error) {
	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list empleados: %w", err)
	}
	defer rows.Close()

	var list []*entity.Empleado
	for rows.Next() {
		empleado, err := scanEmpleado(rows)
		if err != nil {
			return nil, fmt.Errorf("scan empleado: %w", err)
		}
		list = append(list, empleado)
	}
	return list, rows.Err()
}

func scanEmpleado(row filaScanner) (*entity.Empleado, error) {
	var e entity.Empleado
	var codigo, cargo, departamento, email, telefono, nota, creacion sql.NullString
	err := row.Scan(
		&e.ID, &codigo, &e.NombreCompleto, &cargo, &departamento, &e.Cedula,
		&email, &telefono, &nota, &e.Activo, &creacion,
	)
	if err != nil {
		return nil, err
	}
	e.Codigo = codigo.String
	e.Cargo = cargo.String
	e.Departamento = departamento.String
	e.Email = email.String
	e.Telefono = telefono.String
	e.Nota = nota.String
	e.FechaCreacion = parseTiempo(creacion)
	return &e, nil
}
