package entregas_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deleginsumos/deleginsumos/internal/application/entregas"
	"github.com/deleginsumos/deleginsumos/internal/domain"
	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
	"github.com/deleginsumos/deleginsumos/internal/infrastructure/sqlite"
)

// ──────────────────────────────────────────────────────────────────────────────
// El caso de uso de entregas se prueba contra SQLite real: el protocolo de
// creación depende de los triggers y de la transacción, no tiene sentido
// probarlo contra dobles.
// ──────────────────────────────────────────────────────────────────────────────

type entorno struct {
	store        *sqlite.Store
	insumoRepo   *sqlite.InsumoRepo
	empleadoRepo *sqlite.EmpleadoRepo
	entregaRepo  *sqlite.EntregaRepo
	uc           *entregas.EntregaUseCase
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "inventario.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, sqlite.NewMigrator(store, zerolog.Nop()).InitializeDatabase())

	insumoRepo := sqlite.NewInsumoRepository(store)
	empleadoRepo := sqlite.NewEmpleadoRepository(store)
	entregaRepo := sqlite.NewEntregaRepository(store)
	return &entorno{
		store:        store,
		insumoRepo:   insumoRepo,
		empleadoRepo: empleadoRepo,
		entregaRepo:  entregaRepo,
		uc: entregas.NewEntregaUseCase(
			sqlite.NewTxRunner(store), entregaRepo, insumoRepo, empleadoRepo),
	}
}

func (e *entorno) insumo(t *testing.T, nombre string, stock int) *entity.Insumo {
	t.Helper()
	id, err := e.insumoRepo.Create(&entity.Insumo{
		Nombre:         nombre,
		Categoria:      "Papelería",
		CantidadActual: stock,
		CantidadMinima: 1,
		CantidadMaxima: stock * 10,
		UnidadMedida:   "unidad",
		PrecioUnitario: decimal.NewFromInt(2000),
		Activo:         true,
	})
	require.NoError(t, err)
	insumo, err := e.insumoRepo.GetByID(id)
	require.NoError(t, err)
	return insumo
}

func (e *entorno) empleado(t *testing.T, nombre, cedula string) *entity.Empleado {
	t.Helper()
	id, err := e.empleadoRepo.Create(&entity.Empleado{
		NombreCompleto: nombre,
		Cedula:         cedula,
		Activo:         true,
	})
	require.NoError(t, err)
	empleado, err := e.empleadoRepo.GetByID(id)
	require.NoError(t, err)
	return empleado
}

func TestCrearEntrega_Exitosa(t *testing.T) {
	env := nuevoEntorno(t)
	empleado := env.empleado(t, "Laura Méndez", "1023456789")
	insumo := env.insumo(t, "Resma carta", 50)

	resultado, err := env.uc.CrearEntrega(context.Background(), entregas.CrearEntregaInput{
		EmpleadoID:    empleado.ID,
		InsumoID:      insumo.ID,
		Cantidad:      8,
		Observaciones: "Para el archivo",
		EntregadoPor:  "Admin",
	})
	require.NoError(t, err)
	require.NotNil(t, resultado.Entrega)

	assert.Equal(t, 50, resultado.StockAnterior)
	assert.Equal(t, 42, resultado.StockNuevo)
	assert.Equal(t, "Laura Méndez", resultado.Entrega.EmpleadoNombre)
	assert.Equal(t, "Admin", resultado.Entrega.EntregadoPor)

	actual, err := env.insumoRepo.GetByID(insumo.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, actual.CantidadActual, "el stock persistido coincide con el resultado")
}

func TestCrearEntrega_ValidacionSinTocarAlmacenamiento(t *testing.T) {
	env := nuevoEntorno(t)

	casos := []struct {
		nombre string
		input  entregas.CrearEntregaInput
		campo  string
	}{
		{"empleado requerido", entregas.CrearEntregaInput{InsumoID: 1, Cantidad: 1}, "empleado_id"},
		{"insumo requerido", entregas.CrearEntregaInput{EmpleadoID: 1, Cantidad: 1}, "insumo_id"},
		{"cantidad positiva", entregas.CrearEntregaInput{EmpleadoID: 1, InsumoID: 1, Cantidad: 0}, "cantidad"},
		{"cantidad negativa", entregas.CrearEntregaInput{EmpleadoID: 1, InsumoID: 1, Cantidad: -3}, "cantidad"},
		{"observaciones largas", entregas.CrearEntregaInput{
			EmpleadoID: 1, InsumoID: 1, Cantidad: 1,
			Observaciones: strings.Repeat("x", 501),
		}, "observaciones"},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			_, err := env.uc.CrearEntrega(context.Background(), tc.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.campo, ve.Campo)
		})
	}
}

func TestCrearEntrega_EmpleadoInexistente(t *testing.T) {
	env := nuevoEntorno(t)
	insumo := env.insumo(t, "Resma carta", 50)

	_, err := env.uc.CrearEntrega(context.Background(), entregas.CrearEntregaInput{
		EmpleadoID: 9999, InsumoID: insumo.ID, Cantidad: 1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCrearEntrega_EmpleadoInelegible(t *testing.T) {
	env := nuevoEntorno(t)
	empleado := env.empleado(t, "Carlos Ruiz", "900123456")
	insumo := env.insumo(t, "Resma carta", 50)

	require.NoError(t, env.empleadoRepo.Delete(empleado.ID, false))

	_, err := env.uc.CrearEntrega(context.Background(), entregas.CrearEntregaInput{
		EmpleadoID: empleado.ID, InsumoID: insumo.ID, Cantidad: 1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBusinessRule)
	assert.Contains(t, err.Error(), "dado de baja")
}

func TestCrearEntrega_InsumoDadoDeBaja(t *testing.T) {
	env := nuevoEntorno(t)
	empleado := env.empleado(t, "Laura Méndez", "1023456789")
	insumo := env.insumo(t, "Grapadora", 10)

	require.NoError(t, env.insumoRepo.Delete(insumo.ID, false))

	_, err := env.uc.CrearEntrega(context.Background(), entregas.CrearEntregaInput{
		EmpleadoID: empleado.ID, InsumoID: insumo.ID, Cantidad: 1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBusinessRule)
}

func TestCrearEntrega_StockInsuficiente(t *testing.T) {
	env := nuevoEntorno(t)
	empleado := env.empleado(t, "Laura Méndez", "1023456789")
	insumo := env.insumo(t, "Tóner", 5)

	_, err := env.uc.CrearEntrega(context.Background(), entregas.CrearEntregaInput{
		EmpleadoID: empleado.ID, InsumoID: insumo.ID, Cantidad: 6,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 5, ise.StockActual)
	assert.Equal(t, 6, ise.Solicitada)

	actual, err := env.insumoRepo.GetByID(insumo.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, actual.CantidadActual, "el rechazo no debe tocar el stock")
}

// Con stock 10 y dos entregas concurrentes de 6, exactamente una debe ganar:
// la validación previa puede ver stock suficiente en ambas, pero el trigger
// dentro de la transacción decide la carrera.
func TestCrearEntrega_CarreraConcurrente(t *testing.T) {
	env := nuevoEntorno(t)
	empleado := env.empleado(t, "Laura Méndez", "1023456789")
	insumo := env.insumo(t, "Resma carta", 10)

	const cantidad = 6
	errores := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			_, errores[i] = env.uc.CrearEntrega(context.Background(), entregas.CrearEntregaInput{
				EmpleadoID: empleado.ID, InsumoID: insumo.ID, Cantidad: cantidad,
			})
		}(i)
	}
	wg.Wait()

	exitos := 0
	for _, err := range errores {
		if err == nil {
			exitos++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrInsufficientStock),
			"la entrega perdedora debe fallar por stock insuficiente, no por otra causa: %v", err)
	}
	require.Equal(t, 1, exitos, "exactamente una entrega debe ganar la carrera")

	actual, err := env.insumoRepo.GetByID(insumo.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, actual.CantidadActual, "solo la entrega ganadora descuenta stock")

	lista, err := env.uc.EntregasPorInsumo(insumo.ID)
	require.NoError(t, err)
	assert.Len(t, lista, 1)
}

func TestEliminarEntrega_NoRestauraStock(t *testing.T) {
	env := nuevoEntorno(t)
	empleado := env.empleado(t, "Laura Méndez", "1023456789")
	insumo := env.insumo(t, "Carpetas", 20)

	resultado, err := env.uc.CrearEntrega(context.Background(), entregas.CrearEntregaInput{
		EmpleadoID: empleado.ID, InsumoID: insumo.ID, Cantidad: 7,
	})
	require.NoError(t, err)

	require.NoError(t, env.uc.EliminarEntrega(resultado.Entrega.ID))

	_, err = env.uc.ObtenerEntrega(resultado.Entrega.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	actual, err := env.insumoRepo.GetByID(insumo.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, actual.CantidadActual,
		"eliminar la entrega corrige el registro, no devuelve stock")
}

func TestEntregasPorRango_RangoInvertido(t *testing.T) {
	env := nuevoEntorno(t)

	desde := timeDia(2026, 8, 20)
	hasta := timeDia(2026, 8, 10)
	_, err := env.uc.EntregasPorRango(desde, hasta)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func timeDia(anio int, mes time.Month, dia int) time.Time {
	return time.Date(anio, mes, dia, 0, 0, 0, 0, time.Local)
}

func TestListarEntregas_LimitePorDefecto(t *testing.T) {
	env := nuevoEntorno(t)

	lista, err := env.uc.ListarEntregas(0, 0)
	require.NoError(t, err)
	assert.Empty(t, lista)
}
