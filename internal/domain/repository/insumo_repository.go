package repository

import "github.com/deleginsumos/deleginsumos/internal/domain/entity"

// InsumoRepository define el puerto de persistencia para insumos.
// Update recibe solo los campos a reescribir; devuelve false si no había nada
// que cambiar. Delete soporta modo suave (flag activo) y duro (DELETE).
type InsumoRepository interface {
	Create(insumo *entity.Insumo) (int64, error)
	GetByID(id int64) (*entity.Insumo, error)
	GetByCodigo(codigo string) (*entity.Insumo, error)
	GetAll(soloActivos bool) ([]*entity.Insumo, error)
	GetByCategoria(categoria string) ([]*entity.Insumo, error)
	Search(termino string, soloActivos bool) ([]*entity.Insumo, error)
	Update(id int64, campos map[string]any) (bool, error)
	UpdateStock(id int64, cantidad int) error
	Delete(id int64, duro bool) error
	Categorias() ([]string, error)
	ResumenPorCategoria() ([]*entity.ResumenCategoria, error)
	StockAlerts() ([]*entity.AlertaStock, error)
}
