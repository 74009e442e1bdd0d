package sqlite

import (
	"context"
	"fmt"

	"github.com/deleginsumos/deleginsumos/internal/application/entregas"
	"github.com/deleginsumos/deleginsumos/internal/domain"
	"github.com/deleginsumos/deleginsumos/internal/domain/repository"
)

var _ entregas.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción SQLite inmediata.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner con el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. Tras rollback, una violación de constraint (incluido el
// RAISE del trigger de stock) se re-lanza como error de integridad; cualquier
// otro fallo de escritura como error de almacenamiento.
func (r *TxRunner) Run(ctx context.Context, fn func(
	entregaRepo repository.EntregaRepository,
	insumoRepo repository.InsumoRepository,
	empleadoRepo repository.EmpleadoRepository,
) error) error {
	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	entregaRepo := NewEntregaRepository(tx)
	insumoRepo := NewInsumoRepository(tx)
	empleadoRepo := NewEmpleadoRepository(tx)

	if err := fn(entregaRepo, insumoRepo, empleadoRepo); err != nil {
		return traducirErrorTx(err)
	}
	if err := tx.Commit(); err != nil {
		return traducirErrorTx(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func traducirErrorTx(err error) error {
	switch {
	case err == nil:
		return nil
	case isStockTriggerAbort(err):
		return fmt.Errorf("%w: %v", domain.ErrInsufficientStock, err)
	case isConstraintViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrIntegrity, err)
	default:
		return err
	}
}
