package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde
// settings.json opcional y variables de entorno; las env vars tienen prioridad).
type Config struct {
	App      AppConfig
	DB       DBConfig
	Backup   BackupConfig
	Alertas  AlertasConfig
	Reportes ReportesConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, production
	Name     string
	LogLevel string
}

// DBConfig configuración del archivo SQLite.
type DBConfig struct {
	Ruta string
}

// BackupConfig configuración del servicio de backups.
type BackupConfig struct {
	Directorio       string
	Automatico       bool
	IntervaloHoras   int
	MaxDiarios       int
	MaxSemanales     int
	ReintentoMinutos int
}

// AlertasConfig umbrales del motor de alertas.
type AlertasConfig struct {
	UmbralEntregasDia   int
	RetencionDias       int
	VerificacionMinutos int
}

// ReportesConfig configuración de la salida de reportes.
type ReportesConfig struct {
	Directorio string
}

// Load lee la configuración desde variables de entorno y, si existe, desde
// settings.json en el directorio de trabajo o en ./config.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("settings")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "deleginsumos"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Ruta: getString(v, "DB_RUTA", "data/inventario.db"),
		},
		Backup: BackupConfig{
			Directorio:       getString(v, "BACKUP_DIR", "backups"),
			Automatico:       getBool(v, "BACKUP_AUTOMATICO", true),
			IntervaloHoras:   getInt(v, "BACKUP_INTERVALO_HORAS", 24),
			MaxDiarios:       getInt(v, "BACKUP_MAX_DIARIOS", 7),
			MaxSemanales:     getInt(v, "BACKUP_MAX_SEMANALES", 4),
			ReintentoMinutos: getInt(v, "BACKUP_REINTENTO_MINUTOS", 30),
		},
		Alertas: AlertasConfig{
			UmbralEntregasDia:   getInt(v, "ALERTAS_UMBRAL_ENTREGAS_DIA", 10),
			RetencionDias:       getInt(v, "ALERTAS_RETENCION_DIAS", 7),
			VerificacionMinutos: getInt(v, "ALERTAS_VERIFICACION_MINUTOS", 15),
		},
		Reportes: ReportesConfig{
			Directorio: getString(v, "REPORTES_DIR", "reportes"),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
