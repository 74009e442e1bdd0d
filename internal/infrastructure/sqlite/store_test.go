package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deleginsumos/deleginsumos/internal/domain"
	"github.com/deleginsumos/deleginsumos/internal/infrastructure/sqlite"
)

func TestStore_PragmasAplicados(t *testing.T) {
	store := nuevoStore(t)

	var modo string
	require.NoError(t, store.QueryRow(`PRAGMA journal_mode`).Scan(&modo))
	assert.Equal(t, "wal", modo)

	var fk int
	require.NoError(t, store.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk, "las claves foráneas deben quedar habilitadas")
}

func TestStore_ClavesForaneasSeAplican(t *testing.T) {
	store := nuevoStore(t)

	_, err := store.Exec(`
		INSERT INTO entregas (codigo, empleado_id, insumo_id, cantidad)
		VALUES ('ENT-0001', 999, 999, 1)`)
	assert.Error(t, err, "una entrega con referencias inexistentes debe rechazarse")
}

// Durante la ventana de restore el servicio cierra el store mientras otros
// componentes siguen leyendo por los mismos repositorios: una lectura de fila
// contra el store cerrado debe devolver error, jamás un panic.
func TestStore_LecturaDeFilaConStoreCerrado(t *testing.T) {
	store := nuevoStore(t)
	repo := sqlite.NewInsumoRepository(store)
	insumo := sembrarInsumo(t, store, "Resma carta", 10, 2, 20)

	require.NoError(t, store.Close())

	leido, err := repo.GetByID(insumo.ID)
	require.Error(t, err, "leer una fila con el store cerrado debe fallar con error")
	assert.Nil(t, leido)
	assert.Contains(t, err.Error(), "database is closed")

	var uno int
	err = store.QueryRow(`SELECT 1`).Scan(&uno)
	require.Error(t, err)

	entregaRepo := sqlite.NewEntregaRepository(store)
	_, err = entregaRepo.CountByInsumoEnFecha(insumo.ID, time.Now())
	require.Error(t, err)

	// Tras reabrir, las mismas instancias de repositorio vuelven a servir.
	require.NoError(t, store.Reopen())
	leido, err = repo.GetByID(insumo.ID)
	require.NoError(t, err)
	require.NotNil(t, leido)
	assert.Equal(t, "Resma carta", leido.Nombre)
}

func TestStore_CloseYReopen(t *testing.T) {
	store := nuevoStore(t)

	require.NoError(t, store.Close())

	_, err := store.Exec(`SELECT 1`)
	assert.ErrorIs(t, err, domain.ErrConnection, "un store cerrado rechaza escrituras")

	_, err = store.BeginTx(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnection)

	require.NoError(t, store.Reopen())

	var uno int
	require.NoError(t, store.QueryRow(`SELECT 1`).Scan(&uno))
	assert.Equal(t, 1, uno)

	err = store.Reopen()
	assert.Error(t, err, "reabrir con pools abiertos es un error de uso")
}
