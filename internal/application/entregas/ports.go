package entregas

import (
	"context"

	"github.com/deleginsumos/deleginsumos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que el INSERT de la entrega y el
// descuento de stock del trigger se confirmen o deshagan juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		entregaRepo repository.EntregaRepository,
		insumoRepo repository.InsumoRepository,
		empleadoRepo repository.EmpleadoRepository,
	) error) error
}
