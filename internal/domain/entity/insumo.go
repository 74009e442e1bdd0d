package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de stock derivados de cantidad actual vs. umbrales.
const (
	StockCritico = "CRITICO"
	StockBajo    = "BAJO"
	StockExceso  = "EXCESO"
	StockNormal  = "NORMAL"
)

// Insumo representa un artículo de oficina del inventario.
// CantidadActual solo cambia vía entregas (trigger) o ajustes explícitos de stock.
type Insumo struct {
	ID                 int64
	Codigo             string // INS-<año>-<4 dígitos>, único, asignado al crear
	Nombre             string // único entre insumos activos
	Categoria          string
	CantidadActual     int
	CantidadMinima     int // umbral de reposición
	CantidadMaxima     int // umbral de sobre-stock, >= CantidadMinima
	UnidadMedida       string
	PrecioUnitario     decimal.Decimal
	Proveedor          string
	Activo             bool
	FechaCreacion      time.Time
	FechaActualizacion time.Time
}

// EstadoStock deriva el estado del insumo según sus umbrales.
func (i *Insumo) EstadoStock() string {
	switch {
	case i.CantidadActual == 0:
		return StockCritico
	case i.CantidadActual <= i.CantidadMinima:
		return StockBajo
	case i.CantidadMaxima > 0 && i.CantidadActual > i.CantidadMaxima:
		return StockExceso
	default:
		return StockNormal
	}
}

// ResumenCategoria agregado por categoría de la vista vw_resumen_inventario.
type ResumenCategoria struct {
	Categoria       string
	TotalInsumos    int
	StockTotal      int
	ValorTotal      decimal.Decimal
	InsumosCriticos int
	InsumosBajos    int
}

// AlertaStock fila de la vista vw_stock_alerts (estado derivado por la BD).
type AlertaStock struct {
	ID             int64
	Nombre         string
	Categoria      string
	CantidadActual int
	CantidadMinima int
	Estado         string // CRITICO, BAJO o NORMAL
}
