package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deleginsumos/deleginsumos/internal/domain"
)

// migracion un paso de esquema versionado. Las versiones son cadenas que
// ordenan lexicográficamente en orden de aplicación ("001".."006").
type migracion struct {
	version     string
	descripcion string
	up          func(tx *sql.Tx) error
}

// Migrator aplica las migraciones pendientes sobre el Store.
type Migrator struct {
	store *Store
	log   zerolog.Logger
}

// NewMigrator construye el migrador.
func NewMigrator(store *Store, log zerolog.Logger) *Migrator {
	return &Migrator{store: store, log: log.With().Str("componente", "migrator").Logger()}
}

// tablasRequeridas el conjunto mínimo que debe existir tras migrar.
var tablasRequeridas = []string{"insumos", "empleados", "entregas", "schema_migrations"}

// InitializeDatabase aplica todas las migraciones y verifica que el conjunto
// de tablas requerido exista. Si tras migrar el esquema sigue incompleto, el
// almacenamiento está corrupto o no es soportado: se falla con ErrMigration
// y no se reintenta.
func (m *Migrator) InitializeDatabase() error {
	if err := m.MigrateUp(); err != nil {
		return err
	}
	for _, tabla := range tablasRequeridas {
		var nombre string
		err := m.store.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, tabla,
		).Scan(&nombre)
		if err != nil {
			return fmt.Errorf("%w: falta la tabla requerida %s", domain.ErrMigration, tabla)
		}
	}
	return nil
}

// MigrateUp aplica en orden las migraciones cuya versión no esté registrada.
// Cada migración corre en su propia transacción junto con su registro en
// schema_migrations, así una re-ejecución es idempotente.
func (m *Migrator) MigrateUp() error {
	if _, err := m.store.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("%w: crear tabla de control: %v", domain.ErrMigration, err)
	}

	aplicadas, err := m.versionesAplicadas()
	if err != nil {
		return err
	}

	for _, mig := range migraciones {
		if aplicadas[mig.version] {
			continue
		}
		if err := m.aplicar(mig); err != nil {
			return err
		}
		m.log.Info().
			Str("version", mig.version).
			Str("descripcion", mig.descripcion).
			Msg("migración aplicada")
	}
	return nil
}

func (m *Migrator) versionesAplicadas() (map[string]bool, error) {
	rows, err := m.store.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%w: leer versiones aplicadas: %v", domain.ErrMigration, err)
	}
	defer rows.Close()

	aplicadas := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scan versión: %v", domain.ErrMigration, err)
		}
		aplicadas[v] = true
	}
	return aplicadas, rows.Err()
}

func (m *Migrator) aplicar(mig migracion) error {
	tx, err := m.store.BeginTx(context.Background())
	if err != nil {
		return fmt.Errorf("%w: begin migración %s: %v", domain.ErrMigration, mig.version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := mig.up(tx); err != nil {
		return fmt.Errorf("%w: aplicar %s (%s): %v", domain.ErrMigration, mig.version, mig.descripcion, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`,
		mig.version, mig.descripcion,
	); err != nil {
		return fmt.Errorf("%w: registrar %s: %v", domain.ErrMigration, mig.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s: %v", domain.ErrMigration, mig.version, err)
	}
	return nil
}

// Status devuelve las versiones aplicadas en orden.
func (m *Migrator) Status() ([]string, error) {
	rows, err := m.store.Query(`SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("%w: leer estado: %v", domain.ErrMigration, err)
	}
	defer rows.Close()

	var versiones []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scan versión: %v", domain.ErrMigration, err)
		}
		versiones = append(versiones, v)
	}
	return versiones, rows.Err()
}

func execTodas(tx *sql.Tx, sentencias ...string) error {
	for _, s := range sentencias {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

var migraciones = []migracion{
	{
		version:     "001",
		descripcion: "tablas base con constraints",
		up: func(tx *sql.Tx) error {
			return execTodas(tx,
				`CREATE TABLE IF NOT EXISTS insumos (
					id                  INTEGER PRIMARY KEY AUTOINCREMENT,
					nombre              TEXT NOT NULL,
					categoria           TEXT NOT NULL,
					cantidad_actual     INTEGER NOT NULL DEFAULT 0 CHECK (cantidad_actual >= 0),
					cantidad_minima     INTEGER NOT NULL DEFAULT 0 CHECK (cantidad_minima >= 0),
					cantidad_maxima     INTEGER NOT NULL DEFAULT 0 CHECK (cantidad_maxima >= cantidad_minima),
					unidad_medida       TEXT NOT NULL DEFAULT 'unidad',
					precio_unitario     DECIMAL(10,2) NOT NULL DEFAULT 0,
					proveedor           TEXT,
					activo              INTEGER NOT NULL DEFAULT 1,
					fecha_creacion      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					fecha_actualizacion TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS empleados (
					id              INTEGER PRIMARY KEY AUTOINCREMENT,
					nombre_completo TEXT NOT NULL,
					cargo           TEXT,
					departamento    TEXT,
					cedula          TEXT NOT NULL UNIQUE,
					email           TEXT,
					telefono        TEXT,
					nota            TEXT,
					activo          INTEGER NOT NULL DEFAULT 1,
					fecha_creacion  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS entregas (
					id            INTEGER PRIMARY KEY AUTOINCREMENT,
					empleado_id   INTEGER NOT NULL REFERENCES empleados(id) ON DELETE CASCADE,
					insumo_id     INTEGER NOT NULL REFERENCES insumos(id) ON DELETE CASCADE,
					cantidad      INTEGER NOT NULL CHECK (cantidad > 0),
					fecha_entrega TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					observaciones TEXT,
					entregado_por TEXT NOT NULL DEFAULT 'Sistema'
				)`,
			)
		},
	},
	{
		version:     "002",
		descripcion: "índices secundarios",
		up: func(tx *sql.Tx) error {
			return execTodas(tx,
				`CREATE INDEX IF NOT EXISTS idx_insumos_categoria ON insumos(categoria)`,
				`CREATE INDEX IF NOT EXISTS idx_insumos_cantidad ON insumos(cantidad_actual)`,
				`CREATE INDEX IF NOT EXISTS idx_insumos_nombre ON insumos(nombre)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS uq_insumos_nombre_activo ON insumos(nombre) WHERE activo = 1`,
				`CREATE INDEX IF NOT EXISTS idx_empleados_departamento ON empleados(departamento)`,
				`CREATE INDEX IF NOT EXISTS idx_entregas_fecha ON entregas(fecha_entrega)`,
				`CREATE INDEX IF NOT EXISTS idx_entregas_empleado ON entregas(empleado_id)`,
				`CREATE INDEX IF NOT EXISTS idx_entregas_insumo ON entregas(insumo_id)`,
			)
		},
	},
	{
		version:     "003",
		descripcion: "triggers de stock y actualización",
		up: func(tx *sql.Tx) error {
			return execTodas(tx,
				`CREATE TRIGGER IF NOT EXISTS tr_insumos_updated_at
					AFTER UPDATE ON insumos
					FOR EACH ROW
					WHEN NEW.fecha_actualizacion = OLD.fecha_actualizacion
				BEGIN
					UPDATE insumos SET fecha_actualizacion = CURRENT_TIMESTAMP WHERE id = NEW.id;
				END`,
				`CREATE TRIGGER IF NOT EXISTS tr_entregas_validate_stock
					BEFORE INSERT ON entregas
					FOR EACH ROW
					WHEN (SELECT cantidad_actual FROM insumos WHERE id = NEW.insumo_id) < NEW.cantidad
				BEGIN
					SELECT RAISE(ABORT, 'Stock insuficiente para realizar la entrega');
				END`,
				`CREATE TRIGGER IF NOT EXISTS tr_entregas_update_stock
					AFTER INSERT ON entregas
					FOR EACH ROW
				BEGIN
					UPDATE insumos
					SET cantidad_actual = cantidad_actual - NEW.cantidad,
					    fecha_actualizacion = CURRENT_TIMESTAMP
					WHERE id = NEW.insumo_id;
				END`,
			)
		},
	},
	{
		version:     "004",
		descripcion: "vistas de reporte",
		up: func(tx *sql.Tx) error {
			return execTodas(tx,
				`CREATE VIEW IF NOT EXISTS vw_stock_alerts AS
					SELECT id, nombre, categoria, cantidad_actual, cantidad_minima,
						CASE
							WHEN cantidad_actual = 0 THEN 'CRITICO'
							WHEN cantidad_actual <= cantidad_minima THEN 'BAJO'
							ELSE 'NORMAL'
						END AS estado
					FROM insumos
					WHERE activo = 1
					ORDER BY
						CASE
							WHEN cantidad_actual = 0 THEN 0
							WHEN cantidad_actual <= cantidad_minima THEN 1
							ELSE 2
						END, nombre`,
				`CREATE VIEW IF NOT EXISTS vw_entregas_completas AS
					SELECT e.id, e.cantidad, e.fecha_entrega, e.observaciones, e.entregado_por,
						emp.nombre_completo AS empleado_nombre,
						emp.cargo           AS empleado_cargo,
						emp.departamento    AS empleado_departamento,
						emp.cedula          AS empleado_cedula,
						i.nombre            AS insumo_nombre,
						i.categoria         AS insumo_categoria,
						i.unidad_medida     AS insumo_unidad,
						i.precio_unitario   AS insumo_precio,
						e.cantidad * i.precio_unitario AS valor_total
					FROM entregas e
					JOIN empleados emp ON emp.id = e.empleado_id
					JOIN insumos i     ON i.id = e.insumo_id`,
				`CREATE VIEW IF NOT EXISTS vw_resumen_inventario AS
					SELECT categoria,
						COUNT(*)                        AS total_insumos,
						SUM(cantidad_actual)            AS stock_total,
						SUM(cantidad_actual * precio_unitario) AS valor_total,
						SUM(CASE WHEN cantidad_actual = 0 THEN 1 ELSE 0 END) AS insumos_criticos,
						SUM(CASE WHEN cantidad_actual > 0 AND cantidad_actual <= cantidad_minima THEN 1 ELSE 0 END) AS insumos_bajos
					FROM insumos
					WHERE activo = 1
					GROUP BY categoria`,
			)
		},
	},
	{
		version:     "005",
		descripcion: "códigos públicos y sus índices únicos",
		up:          migrarCodigos,
	},
	{
		version:     "006",
		descripcion: "vw_entregas_completas expone ids y código",
		up: func(tx *sql.Tx) error {
			return execTodas(tx,
				`DROP VIEW IF EXISTS vw_entregas_completas`,
				`CREATE VIEW vw_entregas_completas AS
					SELECT e.id, e.codigo, e.empleado_id, e.insumo_id,
						e.cantidad, e.fecha_entrega, e.observaciones, e.entregado_por,
						emp.nombre_completo AS empleado_nombre,
						emp.cargo           AS empleado_cargo,
						emp.departamento    AS empleado_departamento,
						emp.cedula          AS empleado_cedula,
						i.nombre            AS insumo_nombre,
						i.categoria         AS insumo_categoria,
						i.unidad_medida     AS insumo_unidad,
						i.precio_unitario   AS insumo_precio,
						e.cantidad * i.precio_unitario AS valor_total
					FROM entregas e
					JOIN empleados emp ON emp.id = e.empleado_id
					JOIN insumos i     ON i.id = e.insumo_id`,
			)
		},
	},
}

// migrarCodigos agrega la columna codigo a las tres tablas, asigna un código a
// cada fila preexistente y crea los índices únicos que rigen de ahí en adelante.
func migrarCodigos(tx *sql.Tx) error {
	generadores := []struct {
		tabla   string
		generar func() string
	}{
		{"insumos", domain.GenerarCodigoInsumo},
		{"empleados", domain.GenerarCodigoEmpleado},
		{"entregas", domain.GenerarCodigoEntrega},
	}

	for _, g := range generadores {
		if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN codigo TEXT`, g.tabla)); err != nil {
			return err
		}

		rows, err := tx.Query(fmt.Sprintf(`SELECT id FROM %s WHERE codigo IS NULL`, g.tabla))
		if err != nil {
			return err
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		usados := make(map[string]bool)
		for _, id := range ids {
			codigo := g.generar()
			for usados[codigo] {
				codigo = g.generar()
			}
			usados[codigo] = true
			if _, err := tx.Exec(
				fmt.Sprintf(`UPDATE %s SET codigo = ? WHERE id = ?`, g.tabla), codigo, id,
			); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_%s_codigo ON %s(codigo)`, g.tabla, g.tabla,
		)); err != nil {
			return err
		}
	}
	return nil
}
