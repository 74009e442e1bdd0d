package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntregadoPorDefecto etiqueta usada cuando no se indica quién entrega.
const EntregadoPorDefecto = "Sistema"

// Entrega representa la salida de una cantidad de un insumo hacia un empleado.
// El descuento de stock lo aplica el trigger de la BD en la misma transacción
// del INSERT; el código de aplicación nunca resta stock por separado.
type Entrega struct {
	ID            int64
	Codigo        string // ENT-<4 dígitos>, único, asignado al crear
	EmpleadoID    int64
	InsumoID      int64
	Cantidad      int // > 0
	FechaEntrega  time.Time
	Observaciones string
	EntregadoPor  string
}

// EntregaCompleta fila de la vista vw_entregas_completas: la entrega más los
// campos denormalizados de empleado e insumo que pantallas y reportes siempre
// necesitan juntos.
type EntregaCompleta struct {
	Entrega
	EmpleadoNombre       string
	EmpleadoCargo        string
	EmpleadoDepartamento string
	EmpleadoCedula       string
	InsumoNombre         string
	InsumoCategoria      string
	InsumoUnidad         string
	InsumoPrecio         decimal.Decimal
	ValorTotal           decimal.Decimal
}

// EstadisticasEntregas agregados simples para el tablero y los reportes.
type EstadisticasEntregas struct {
	TotalEntregas   int
	EntregasHoy     int
	EntregasSemana  int
	InsumoMasPedido string
}
