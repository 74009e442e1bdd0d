package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
	"github.com/deleginsumos/deleginsumos/internal/infrastructure/sqlite"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers compartidos: cada test trabaja contra un archivo SQLite real en un
// directorio temporal, con el esquema completo migrado.
// ──────────────────────────────────────────────────────────────────────────────

func nuevoStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "inventario.db"), zerolog.Nop())
	require.NoError(t, err, "abrir el store no debe fallar")
	t.Cleanup(func() { _ = store.Close() })

	migrator := sqlite.NewMigrator(store, zerolog.Nop())
	require.NoError(t, migrator.InitializeDatabase(), "inicializar el esquema no debe fallar")
	return store
}

func sembrarInsumo(t *testing.T, store *sqlite.Store, nombre string, stock, min, max int) *entity.Insumo {
	t.Helper()
	repo := sqlite.NewInsumoRepository(store)
	insumo := &entity.Insumo{
		Nombre:         nombre,
		Categoria:      "Papelería",
		CantidadActual: stock,
		CantidadMinima: min,
		CantidadMaxima: max,
		UnidadMedida:   "unidad",
		PrecioUnitario: decimal.NewFromFloat(1500.50),
		Proveedor:      "Papelería Central",
		Activo:         true,
	}
	id, err := repo.Create(insumo)
	require.NoError(t, err, "sembrar insumo no debe fallar")
	creado, err := repo.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, creado)
	return creado
}

func sembrarEmpleado(t *testing.T, store *sqlite.Store, nombre, cedula string) *entity.Empleado {
	t.Helper()
	repo := sqlite.NewEmpleadoRepository(store)
	empleado := &entity.Empleado{
		NombreCompleto: nombre,
		Cargo:          "Auxiliar",
		Departamento:   "Administración",
		Cedula:         cedula,
		Activo:         true,
	}
	id, err := repo.Create(empleado)
	require.NoError(t, err, "sembrar empleado no debe fallar")
	creado, err := repo.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, creado)
	return creado
}
