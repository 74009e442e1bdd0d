package empleados_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deleginsumos/deleginsumos/internal/application/empleados"
	"github.com/deleginsumos/deleginsumos/internal/domain"
	"github.com/deleginsumos/deleginsumos/internal/infrastructure/sqlite"
)

func nuevoUC(t *testing.T) *empleados.EmpleadoUseCase {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "inventario.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, sqlite.NewMigrator(store, zerolog.Nop()).InitializeDatabase())
	return empleados.NewEmpleadoUseCase(sqlite.NewEmpleadoRepository(store))
}

func entradaValida() empleados.CrearEmpleadoInput {
	return empleados.CrearEmpleadoInput{
		NombreCompleto: "Laura Méndez",
		Cargo:          "Auxiliar",
		Departamento:   "Administración",
		Cedula:         "1023456789",
		Email:          "laura@ejemplo.com",
	}
}

func TestCrear_Valido(t *testing.T) {
	uc := nuevoUC(t)

	empleado, err := uc.Crear(entradaValida())
	require.NoError(t, err)
	assert.Positive(t, empleado.ID)
	assert.NotEmpty(t, empleado.Codigo)
	assert.True(t, empleado.Activo)
}

func TestCrear_Validaciones(t *testing.T) {
	uc := nuevoUC(t)

	casos := []struct {
		nombre string
		mutar  func(*empleados.CrearEmpleadoInput)
		campo  string
	}{
		{"nombre requerido", func(in *empleados.CrearEmpleadoInput) { in.NombreCompleto = " " }, "nombre_completo"},
		{"cedula corta", func(in *empleados.CrearEmpleadoInput) { in.Cedula = "123" }, "cedula"},
		{"cedula larga", func(in *empleados.CrearEmpleadoInput) { in.Cedula = "1234567890123" }, "cedula"},
		{"cedula no numerica", func(in *empleados.CrearEmpleadoInput) { in.Cedula = "12a4567" }, "cedula"},
		{"email invalido", func(in *empleados.CrearEmpleadoInput) { in.Email = "no-es-un-correo" }, "email"},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			in := entradaValida()
			tc.mutar(&in)
			_, err := uc.Crear(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.campo, ve.Campo)
		})
	}
}

func TestCrear_EmailOpcional(t *testing.T) {
	uc := nuevoUC(t)

	in := entradaValida()
	in.Email = ""
	_, err := uc.Crear(in)
	assert.NoError(t, err, "el email vacío es válido")
}

func TestCrear_CedulaDuplicada(t *testing.T) {
	uc := nuevoUC(t)

	_, err := uc.Crear(entradaValida())
	require.NoError(t, err)

	in := entradaValida()
	in.NombreCompleto = "Otra Persona"
	_, err = uc.Crear(in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestActualizar_CedulaInvalida(t *testing.T) {
	uc := nuevoUC(t)
	empleado, err := uc.Crear(entradaValida())
	require.NoError(t, err)

	_, err = uc.Actualizar(empleado.ID, map[string]any{"cedula": "abc"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestObtenerPorCedula(t *testing.T) {
	uc := nuevoUC(t)
	empleado, err := uc.Crear(entradaValida())
	require.NoError(t, err)

	porCedula, err := uc.ObtenerPorCedula("1023456789")
	require.NoError(t, err)
	assert.Equal(t, empleado.ID, porCedula.ID)

	_, err = uc.ObtenerPorCedula("0000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEliminar_BajaSuave(t *testing.T) {
	uc := nuevoUC(t)
	empleado, err := uc.Crear(entradaValida())
	require.NoError(t, err)

	require.NoError(t, uc.Eliminar(empleado.ID, false))

	activos, err := uc.Listar(true)
	require.NoError(t, err)
	assert.Empty(t, activos)

	todos, err := uc.Listar(false)
	require.NoError(t, err)
	assert.Len(t, todos, 1)
}
