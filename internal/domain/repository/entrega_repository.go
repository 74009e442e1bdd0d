package repository

import (
	"time"

	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
)

// EntregaRepository define el puerto de persistencia para entregas.
// Las lecturas pasan siempre por la vista vw_entregas_completas porque
// pantallas y reportes necesitan los campos denormalizados de empleado e insumo.
type EntregaRepository interface {
	Create(entrega *entity.Entrega) (int64, error)
	GetByID(id int64) (*entity.EntregaCompleta, error)
	GetAll(limite, offset int) ([]*entity.EntregaCompleta, error)
	GetByEmpleado(empleadoID int64) ([]*entity.EntregaCompleta, error)
	GetByInsumo(insumoID int64) ([]*entity.EntregaCompleta, error)
	GetByRangoFechas(desde, hasta time.Time) ([]*entity.EntregaCompleta, error)
	CountByInsumoEnFecha(insumoID int64, fecha time.Time) (int, error)
	Estadisticas() (*entity.EstadisticasEntregas, error)
	// Delete elimina la fila; el stock descontado NO se restaura.
	Delete(id int64) error
}
