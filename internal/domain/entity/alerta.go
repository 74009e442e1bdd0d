package entity

import "time"

// Tipos de alerta que deriva el motor de alertas.
const (
	AlertaStockCritico       = "STOCK_CRITICO"
	AlertaStockBajo          = "STOCK_BAJO"
	AlertaStockExceso        = "STOCK_EXCESO"
	AlertaEntregasFrecuentes = "ENTREGAS_FRECUENTES"
	AlertaErrorSistema       = "SISTEMA_ERROR"
	AlertaBackupFallido      = "BACKUP_FAILED"
	AlertaInconsistencia     = "DATA_INCONSISTENCY"
)

// Severidades de alerta, de mayor a menor urgencia.
const (
	SeveridadCritica = "CRITICAL"
	SeveridadAlta    = "HIGH"
	SeveridadMedia   = "MEDIUM"
	SeveridadBaja    = "LOW"
)

// OrdenSeveridad devuelve el rango numérico de una severidad (menor = más urgente).
func OrdenSeveridad(s string) int {
	switch s {
	case SeveridadCritica:
		return 0
	case SeveridadAlta:
		return 1
	case SeveridadMedia:
		return 2
	case SeveridadBaja:
		return 3
	default:
		return 4
	}
}

// Alerta alerta derivada del estado del inventario. Vive solo en memoria: cada
// pasada de verificación re-deriva candidatas y las funde con las activas.
type Alerta struct {
	ID            string // uuid
	Tipo          string
	Severidad     string
	Titulo        string
	Mensaje       string
	EntidadTipo   string // insumo, empleado, entrega, sistema
	EntidadID     int64
	Datos         map[string]any
	FechaCreacion time.Time
	Resuelta      bool
	ResueltaPor   string
	FechaResuelta time.Time
}
