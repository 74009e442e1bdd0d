package entregas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deleginsumos/deleginsumos/internal/domain"
	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
	"github.com/deleginsumos/deleginsumos/internal/domain/repository"
)

// EntregaUseCase registra entregas de insumos de forma transaccional y expone
// las consultas de entregas. El trigger de la BD es la línea de defensa
// autoritativa contra carreras entre la validación de stock y el INSERT.
type EntregaUseCase struct {
	txRunner     TxRunner
	entregaRepo  repository.EntregaRepository
	insumoRepo   repository.InsumoRepository
	empleadoRepo repository.EmpleadoRepository
}

// NewEntregaUseCase construye el caso de uso.
func NewEntregaUseCase(
	txRunner TxRunner,
	entregaRepo repository.EntregaRepository,
	insumoRepo repository.InsumoRepository,
	empleadoRepo repository.EmpleadoRepository,
) *EntregaUseCase {
	return &EntregaUseCase{
		txRunner:     txRunner,
		entregaRepo:  entregaRepo,
		insumoRepo:   insumoRepo,
		empleadoRepo: empleadoRepo,
	}
}

// CrearEntregaInput entrada para registrar una entrega.
type CrearEntregaInput struct {
	EmpleadoID    int64
	InsumoID      int64
	Cantidad      int
	Observaciones string
	EntregadoPor  string
}

// ResultadoEntrega entrega creada junto con el stock antes y después.
type ResultadoEntrega struct {
	Entrega       *entity.EntregaCompleta
	StockAnterior int
	StockNuevo    int
}

// CrearEntrega ejecuta el protocolo de entrega:
//  1. valida la forma de la entrada, sin tocar almacenamiento;
//  2. valida que el empleado exista y sea elegible (lectura);
//  3. valida stock suficiente contra el snapshot actual (lectura);
//  4. inserta la entrega en una transacción; el trigger re-valida y descuenta
//     el stock en esa misma transacción.
//
// Si el trigger gana una carrera que el paso 3 no vio, el error sale como
// stock insuficiente desde la capa de almacenamiento; en ambos casos la
// entrega queda rechazada y el stock intacto.
func (uc *EntregaUseCase) CrearEntrega(ctx context.Context, input CrearEntregaInput) (*ResultadoEntrega, error) {
	if err := validarEntrada(input); err != nil {
		return nil, err
	}

	empleado, err := uc.empleadoRepo.GetByID(input.EmpleadoID)
	if err != nil {
		return nil, err
	}
	if empleado == nil {
		return nil, domain.NewNotFoundError("empleado", input.EmpleadoID)
	}
	if motivos := motivosInelegibilidad(empleado); len(motivos) > 0 {
		return nil, domain.NewBusinessError(
			fmt.Sprintf("empleado no elegible para recibir insumos: %s", strings.Join(motivos, "; ")))
	}

	insumo, err := uc.insumoRepo.GetByID(input.InsumoID)
	if err != nil {
		return nil, err
	}
	if insumo == nil {
		return nil, domain.NewNotFoundError("insumo", input.InsumoID)
	}
	if !insumo.Activo {
		return nil, domain.NewBusinessError(fmt.Sprintf("el insumo '%s' está dado de baja", insumo.Nombre))
	}
	if insumo.CantidadActual < input.Cantidad {
		return nil, domain.NewInsufficientStockError(insumo.Nombre, insumo.CantidadActual, input.Cantidad)
	}

	entrega := &entity.Entrega{
		EmpleadoID:    input.EmpleadoID,
		InsumoID:      input.InsumoID,
		Cantidad:      input.Cantidad,
		Observaciones: input.Observaciones,
		EntregadoPor:  input.EntregadoPor,
	}

	var id int64
	err = uc.txRunner.Run(ctx, func(
		entregaRepo repository.EntregaRepository,
		_ repository.InsumoRepository,
		_ repository.EmpleadoRepository,
	) error {
		var err error
		id, err = entregaRepo.Create(entrega)
		return err
	})
	if err != nil {
		return nil, err
	}

	creada, err := uc.entregaRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return &ResultadoEntrega{
		Entrega:       creada,
		StockAnterior: insumo.CantidadActual,
		StockNuevo:    insumo.CantidadActual - input.Cantidad,
	}, nil
}

// ObtenerEntrega obtiene una entrega por ID.
func (uc *EntregaUseCase) ObtenerEntrega(id int64) (*entity.EntregaCompleta, error) {
	entrega, err := uc.entregaRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if entrega == nil {
		return nil, domain.NewNotFoundError("entrega", id)
	}
	return entrega, nil
}

// ListarEntregas lista entregas recientes con paginación.
func (uc *EntregaUseCase) ListarEntregas(limite, offset int) ([]*entity.EntregaCompleta, error) {
	if limite <= 0 {
		limite = 50
	}
	return uc.entregaRepo.GetAll(limite, offset)
}

// EntregasPorEmpleado lista las entregas hechas a un empleado.
func (uc *EntregaUseCase) EntregasPorEmpleado(empleadoID int64) ([]*entity.EntregaCompleta, error) {
	return uc.entregaRepo.GetByEmpleado(empleadoID)
}

// EntregasPorInsumo lista las entregas de un insumo.
func (uc *EntregaUseCase) EntregasPorInsumo(insumoID int64) ([]*entity.EntregaCompleta, error) {
	return uc.entregaRepo.GetByInsumo(insumoID)
}

// EntregasPorRango lista entregas entre dos fechas (inclusive, por día calendario).
func (uc *EntregaUseCase) EntregasPorRango(desde, hasta time.Time) ([]*entity.EntregaCompleta, error) {
	if hasta.Before(desde) {
		return nil, domain.NewValidationError("rango", "la fecha final es anterior a la inicial")
	}
	return uc.entregaRepo.GetByRangoFechas(desde, hasta)
}

// EntregasHoy lista las entregas del día.
func (uc *EntregaUseCase) EntregasHoy() ([]*entity.EntregaCompleta, error) {
	hoy := time.Now()
	return uc.entregaRepo.GetByRangoFechas(hoy, hoy)
}

// Estadisticas devuelve los agregados de entregas para el tablero.
func (uc *EntregaUseCase) Estadisticas() (*entity.EstadisticasEntregas, error) {
	return uc.entregaRepo.Estadisticas()
}

// EliminarEntrega borra la fila de la entrega. El stock descontado al crearla
// NO se restaura: quedó así en el producto y corregirlo es un ajuste manual.
func (uc *EntregaUseCase) EliminarEntrega(id int64) error {
	entrega, err := uc.entregaRepo.GetByID(id)
	if err != nil {
		return err
	}
	if entrega == nil {
		return domain.NewNotFoundError("entrega", id)
	}
	return uc.entregaRepo.Delete(id)
}

func validarEntrada(input CrearEntregaInput) error {
	if input.EmpleadoID <= 0 {
		return domain.NewValidationError("empleado_id", "requerido")
	}
	if input.InsumoID <= 0 {
		return domain.NewValidationError("insumo_id", "requerido")
	}
	if input.Cantidad <= 0 {
		return domain.NewValidationError("cantidad", "debe ser mayor que cero")
	}
	if len(input.Observaciones) > 500 {
		return domain.NewValidationError("observaciones", "máximo 500 caracteres")
	}
	return nil
}

func motivosInelegibilidad(empleado *entity.Empleado) []string {
	var motivos []string
	if !empleado.Activo {
		motivos = append(motivos, "está dado de baja")
	}
	if strings.TrimSpace(empleado.NombreCompleto) == "" {
		motivos = append(motivos, "no tiene nombre registrado")
	}
	return motivos
}
