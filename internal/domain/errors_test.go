package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deleginsumos/deleginsumos/internal/domain"
)

func TestErroresTipados_DesenvuelvenASuCentinela(t *testing.T) {
	casos := []struct {
		err       error
		centinela error
	}{
		{domain.NewValidationError("nombre", "requerido"), domain.ErrInvalidInput},
		{domain.NewDuplicateError("empleado", "cedula", "123456"), domain.ErrDuplicate},
		{domain.NewNotFoundError("insumo", 7), domain.ErrNotFound},
		{domain.NewInsufficientStockError("Resma", 5, 6), domain.ErrInsufficientStock},
		{domain.NewBusinessError("no elegible"), domain.ErrBusinessRule},
	}
	for _, tc := range casos {
		assert.ErrorIs(t, tc.err, tc.centinela)
	}
}

func TestErroresTipados_SobrevivenElEnvoltorio(t *testing.T) {
	envuelto := fmt.Errorf("capa externa: %w", domain.NewInsufficientStockError("Tóner", 2, 5))

	assert.ErrorIs(t, envuelto, domain.ErrInsufficientStock)

	var ise *domain.InsufficientStockError
	require.True(t, errors.As(envuelto, &ise))
	assert.Equal(t, 2, ise.StockActual)
	assert.Equal(t, 5, ise.Solicitada)
}

func TestErrores_MensajesConContexto(t *testing.T) {
	assert.Contains(t, domain.NewDuplicateError("empleado", "cedula", "123456").Error(), "cedula")
	assert.Contains(t, domain.NewNotFoundError("insumo", 7).Error(), "7")
	assert.Contains(t, domain.NewInsufficientStockError("Resma", 5, 6).Error(), "disponible 5")
}
