package backup_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deleginsumos/deleginsumos/internal/application/backup"
	"github.com/deleginsumos/deleginsumos/internal/domain"
	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
	"github.com/deleginsumos/deleginsumos/internal/infrastructure/sqlite"
)

// ──────────────────────────────────────────────────────────────────────────────
// Los backups se prueban de punta a punta contra archivos reales: crear,
// validar, comprimir, rotar y restaurar con rollback.
// ──────────────────────────────────────────────────────────────────────────────

type banco struct {
	store      *sqlite.Store
	insumoRepo *sqlite.InsumoRepo
	dir        string
}

func nuevoBanco(t *testing.T) *banco {
	t.Helper()
	raiz := t.TempDir()
	store, err := sqlite.Open(filepath.Join(raiz, "data", "inventario.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, sqlite.NewMigrator(store, zerolog.Nop()).InitializeDatabase())
	return &banco{
		store:      store,
		insumoRepo: sqlite.NewInsumoRepository(store),
		dir:        filepath.Join(raiz, "backups"),
	}
}

func (b *banco) servicio(cfg backup.Config) *backup.Service {
	cfg.Directorio = b.dir
	return backup.NewService(b.store, cfg, nil, zerolog.Nop())
}

func (b *banco) insumo(t *testing.T, nombre string) int64 {
	t.Helper()
	id, err := b.insumoRepo.Create(&entity.Insumo{
		Nombre:         nombre,
		Categoria:      "Papelería",
		CantidadActual: 10,
		CantidadMinima: 1,
		CantidadMaxima: 100,
		UnidadMedida:   "unidad",
		PrecioUnitario: decimal.NewFromInt(1000),
		Activo:         true,
	})
	require.NoError(t, err)
	return id
}

func TestService_BackupManualSinComprimir(t *testing.T) {
	b := nuevoBanco(t)
	svc := b.servicio(backup.Config{})
	b.insumo(t, "Resma carta")

	info, err := svc.CrearBackupManual(false)
	require.NoError(t, err)

	assert.Equal(t, backup.BucketManual, info.Bucket)
	assert.False(t, info.Comprimido)
	assert.True(t, strings.HasSuffix(info.Nombre, ".db"))
	assert.Positive(t, info.Tamano)
	assert.FileExists(t, info.Ruta)
}

func TestService_BackupManualComprimido(t *testing.T) {
	b := nuevoBanco(t)
	svc := b.servicio(backup.Config{})
	b.insumo(t, "Resma carta")

	info, err := svc.CrearBackupManual(true)
	require.NoError(t, err)

	assert.True(t, info.Comprimido)
	assert.True(t, strings.HasSuffix(info.Nombre, ".db.gz"))
	assert.FileExists(t, info.Ruta)

	// El .db plano intermedio no debe quedar en disco.
	plano := strings.TrimSuffix(info.Ruta, ".gz")
	assert.NoFileExists(t, plano)
}

func TestService_BackupAutomaticoRota(t *testing.T) {
	b := nuevoBanco(t)
	svc := b.servicio(backup.Config{MaxDiarios: 2, MaxSemanales: 2})
	b.insumo(t, "Resma carta")

	bucket := backup.BucketDiario
	if time.Now().Weekday() == time.Sunday {
		bucket = backup.BucketSemanal
	}

	// Artefactos viejos pre-sembrados que la rotación debe desplazar.
	dir := filepath.Join(b.dir, bucket)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for i, nombre := range []string{"backup_viejo_1.db", "backup_viejo_2.db"} {
		ruta := filepath.Join(dir, nombre)
		require.NoError(t, os.WriteFile(ruta, []byte("x"), 0o644))
		viejo := time.Now().Add(-time.Duration(48+24*i) * time.Hour)
		require.NoError(t, os.Chtimes(ruta, viejo, viejo))
	}

	info, err := svc.CrearBackupAutomatico()
	require.NoError(t, err)
	assert.Equal(t, bucket, info.Bucket)
	assert.True(t, info.Comprimido, "el backup programado siempre va comprimido")

	listado, err := svc.ListarBackups()
	require.NoError(t, err)
	require.Len(t, listado[bucket], 2, "la rotación respeta el máximo del bucket")
	assert.Equal(t, info.Nombre, listado[bucket][0].Nombre, "el más reciente sobrevive")
	assert.Equal(t, "backup_viejo_1.db", listado[bucket][1].Nombre)
}

func TestService_ListarBackups_Vacio(t *testing.T) {
	b := nuevoBanco(t)
	svc := b.servicio(backup.Config{})

	listado, err := svc.ListarBackups()
	require.NoError(t, err)
	for _, bucket := range []string{
		backup.BucketDiario, backup.BucketSemanal, backup.BucketManual, backup.BucketPreRestore,
	} {
		assert.Empty(t, listado[bucket])
	}
}

func TestService_RestaurarBackup(t *testing.T) {
	b := nuevoBanco(t)
	svc := b.servicio(backup.Config{})

	b.insumo(t, "Resma carta")
	info, err := svc.CrearBackupManual(true)
	require.NoError(t, err)

	// Cambios posteriores al backup que el restore debe deshacer.
	b.insumo(t, "Tóner")
	antes, err := b.insumoRepo.GetAll(true)
	require.NoError(t, err)
	require.Len(t, antes, 2)

	require.NoError(t, svc.RestaurarBackup(info.Nombre))

	despues, err := b.insumoRepo.GetAll(true)
	require.NoError(t, err, "el store debe quedar reabierto y usable tras el restore")
	require.Len(t, despues, 1, "el restore vuelve al estado del backup")
	assert.Equal(t, "Resma carta", despues[0].Nombre)

	// El restore deja un backup de seguridad pre-restore.
	listado, err := svc.ListarBackups()
	require.NoError(t, err)
	assert.NotEmpty(t, listado[backup.BucketPreRestore])
}

func TestService_RestaurarBackup_Inexistente(t *testing.T) {
	b := nuevoBanco(t)
	svc := b.servicio(backup.Config{})

	err := svc.RestaurarBackup("backup_manual_nunca.db")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackup)
}

func TestService_RestaurarBackup_ArtefactoCorruptoNoTocaLaBD(t *testing.T) {
	b := nuevoBanco(t)
	svc := b.servicio(backup.Config{})
	b.insumo(t, "Resma carta")

	// Un archivo que no es SQLite, plantado a mano en el bucket manual.
	dir := filepath.Join(b.dir, backup.BucketManual)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	corrupto := filepath.Join(dir, "backup_manual_corrupto.db")
	require.NoError(t, os.WriteFile(corrupto, []byte("esto no es una base de datos"), 0o644))

	err := svc.RestaurarBackup("backup_manual_corrupto.db")
	require.Error(t, err, "un artefacto inválido debe rechazarse antes del swap")
	assert.ErrorIs(t, err, domain.ErrBackup)

	insumos, err := b.insumoRepo.GetAll(true)
	require.NoError(t, err)
	assert.Len(t, insumos, 1, "la BD viva debe quedar intacta")
}

func TestService_Detener_SinIniciarNoFalla(t *testing.T) {
	b := nuevoBanco(t)
	svc := b.servicio(backup.Config{Automatico: false})

	svc.IniciarProgramado() // deshabilitado: no programa nada
	svc.Detener()
}
