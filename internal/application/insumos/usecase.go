package insumos

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/deleginsumos/deleginsumos/internal/domain"
	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
	"github.com/deleginsumos/deleginsumos/internal/domain/repository"
)

// InsumoUseCase casos de uso CRUD y de consulta para insumos. El stock solo
// cambia por entregas (trigger) o por AjustarStock.
type InsumoUseCase struct {
	repo repository.InsumoRepository
}

// NewInsumoUseCase construye el caso de uso.
func NewInsumoUseCase(repo repository.InsumoRepository) *InsumoUseCase {
	return &InsumoUseCase{repo: repo}
}

// CrearInsumoInput entrada para crear un insumo.
type CrearInsumoInput struct {
	Nombre         string
	Categoria      string
	CantidadActual int
	CantidadMinima int
	CantidadMaxima int
	UnidadMedida   string
	PrecioUnitario decimal.Decimal
	Proveedor      string
}

// Crear valida y persiste un insumo nuevo. El pre-chequeo de nombre duplicado
// es de cortesía; el índice único es la garantía final.
func (uc *InsumoUseCase) Crear(in CrearInsumoInput) (*entity.Insumo, error) {
	if err := validarInsumo(in); err != nil {
		return nil, err
	}

	existentes, err := uc.repo.Search(in.Nombre, true)
	if err != nil {
		return nil, err
	}
	for _, e := range existentes {
		if strings.EqualFold(e.Nombre, in.Nombre) {
			return nil, domain.NewDuplicateError("insumo", "nombre", in.Nombre)
		}
	}

	if in.UnidadMedida == "" {
		in.UnidadMedida = "unidad"
	}
	insumo := &entity.Insumo{
		Nombre:         strings.TrimSpace(in.Nombre),
		Categoria:      strings.TrimSpace(in.Categoria),
		CantidadActual: in.CantidadActual,
		CantidadMinima: in.CantidadMinima,
		CantidadMaxima: in.CantidadMaxima,
		UnidadMedida:   in.UnidadMedida,
		PrecioUnitario: in.PrecioUnitario,
		Proveedor:      strings.TrimSpace(in.Proveedor),
		Activo:         true,
	}
	if _, err := uc.repo.Create(insumo); err != nil {
		return nil, err
	}
	return uc.Obtener(insumo.ID)
}

// Obtener obtiene un insumo por ID.
func (uc *InsumoUseCase) Obtener(id int64) (*entity.Insumo, error) {
	insumo, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if insumo == nil {
		return nil, domain.NewNotFoundError("insumo", id)
	}
	return insumo, nil
}

// ObtenerPorCodigo obtiene un insumo por su código público.
func (uc *InsumoUseCase) ObtenerPorCodigo(codigo string) (*entity.Insumo, error) {
	insumo, err := uc.repo.GetByCodigo(codigo)
	if err != nil {
		return nil, err
	}
	if insumo == nil {
		return nil, domain.NewNotFoundError("insumo", 0)
	}
	return insumo, nil
}

// Listar lista insumos, opcionalmente solo los activos.
func (uc *InsumoUseCase) Listar(soloActivos bool) ([]*entity.Insumo, error) {
	return uc.repo.GetAll(soloActivos)
}

// PorCategoria lista los insumos activos de una categoría.
func (uc *InsumoUseCase) PorCategoria(categoria string) ([]*entity.Insumo, error) {
	return uc.repo.GetByCategoria(categoria)
}

// Buscar busca por subcadena en nombre, categoría y proveedor.
func (uc *InsumoUseCase) Buscar(termino string, soloActivos bool) ([]*entity.Insumo, error) {
	termino = strings.TrimSpace(termino)
	if termino == "" {
		return uc.repo.GetAll(soloActivos)
	}
	return uc.repo.Search(termino, soloActivos)
}

// Actualizar reescribe los campos presentes en el mapa. Devuelve false si no
// había nada que cambiar.
func (uc *InsumoUseCase) Actualizar(id int64, campos map[string]any) (bool, error) {
	if min, okMin := enteroDe(campos["cantidad_minima"]); okMin {
		if min < 0 {
			return false, domain.NewValidationError("cantidad_minima", "no puede ser negativa")
		}
		if max, okMax := enteroDe(campos["cantidad_maxima"]); okMax && max < min {
			return false, domain.NewValidationError("cantidad_maxima", "debe ser mayor o igual a la mínima")
		}
	}
	if nombre, ok := campos["nombre"].(string); ok && strings.TrimSpace(nombre) == "" {
		return false, domain.NewValidationError("nombre", "requerido")
	}
	return uc.repo.Update(id, campos)
}

// AjustarStock fija la cantidad actual de un insumo (corrección manual).
func (uc *InsumoUseCase) AjustarStock(id int64, cantidad int) error {
	if cantidad < 0 {
		return domain.NewValidationError("cantidad", "no puede ser negativa")
	}
	return uc.repo.UpdateStock(id, cantidad)
}

// Eliminar da de baja (suave) o elimina definitivamente (duro) un insumo.
func (uc *InsumoUseCase) Eliminar(id int64, duro bool) error {
	return uc.repo.Delete(id, duro)
}

// Categorias lista las categorías en uso.
func (uc *InsumoUseCase) Categorias() ([]string, error) {
	return uc.repo.Categorias()
}

// ResumenInventario devuelve los agregados por categoría.
func (uc *InsumoUseCase) ResumenInventario() ([]*entity.ResumenCategoria, error) {
	return uc.repo.ResumenPorCategoria()
}

// AlertasStock devuelve el estado de stock derivado por la BD para cada insumo activo.
func (uc *InsumoUseCase) AlertasStock() ([]*entity.AlertaStock, error) {
	return uc.repo.StockAlerts()
}

func validarInsumo(in CrearInsumoInput) error {
	if strings.TrimSpace(in.Nombre) == "" {
		return domain.NewValidationError("nombre", "requerido")
	}
	if strings.TrimSpace(in.Categoria) == "" {
		return domain.NewValidationError("categoria", "requerida")
	}
	if in.CantidadActual < 0 {
		return domain.NewValidationError("cantidad_actual", "no puede ser negativa")
	}
	if in.CantidadMinima < 0 {
		return domain.NewValidationError("cantidad_minima", "no puede ser negativa")
	}
	if in.CantidadMaxima < in.CantidadMinima {
		return domain.NewValidationError("cantidad_maxima", "debe ser mayor o igual a la mínima")
	}
	if in.PrecioUnitario.IsNegative() {
		return domain.NewValidationError("precio_unitario", "no puede ser negativo")
	}
	return nil
}

func enteroDe(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
