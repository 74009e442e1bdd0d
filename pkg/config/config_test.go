package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deleginsumos/deleginsumos/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "data/inventario.db", cfg.DB.Ruta)
	assert.Equal(t, "backups", cfg.Backup.Directorio)
	assert.True(t, cfg.Backup.Automatico)
	assert.Equal(t, 24, cfg.Backup.IntervaloHoras)
	assert.Equal(t, 7, cfg.Backup.MaxDiarios)
	assert.Equal(t, 4, cfg.Backup.MaxSemanales)
	assert.Equal(t, 10, cfg.Alertas.UmbralEntregasDia)
	assert.Equal(t, "reportes", cfg.Reportes.Directorio)
}

func TestLoad_EnvSobreescribe(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_RUTA", "/var/lib/app/inventario.db")
	t.Setenv("BACKUP_AUTOMATICO", "false")
	t.Setenv("ALERTAS_UMBRAL_ENTREGAS_DIA", "25")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "/var/lib/app/inventario.db", cfg.DB.Ruta)
	assert.False(t, cfg.Backup.Automatico)
	assert.Equal(t, 25, cfg.Alertas.UmbralEntregasDia, "los enteros llegan como string desde el entorno")
}
