package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
)

func TestInsumo_EstadoStock(t *testing.T) {
	casos := []struct {
		nombre string
		actual int
		min    int
		max    int
		estado string
	}{
		{"agotado", 0, 5, 50, entity.StockCritico},
		{"en el minimo", 5, 5, 50, entity.StockBajo},
		{"bajo el minimo", 3, 5, 50, entity.StockBajo},
		{"normal", 20, 5, 50, entity.StockNormal},
		{"sobre el maximo", 60, 5, 50, entity.StockExceso},
		{"sin maximo definido", 999, 5, 0, entity.StockNormal},
		{"agotado gana al exceso", 0, 0, 0, entity.StockCritico},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			i := entity.Insumo{
				CantidadActual: tc.actual,
				CantidadMinima: tc.min,
				CantidadMaxima: tc.max,
			}
			assert.Equal(t, tc.estado, i.EstadoStock())
		})
	}
}

func TestOrdenSeveridad(t *testing.T) {
	assert.Less(t, entity.OrdenSeveridad(entity.SeveridadCritica), entity.OrdenSeveridad(entity.SeveridadAlta))
	assert.Less(t, entity.OrdenSeveridad(entity.SeveridadAlta), entity.OrdenSeveridad(entity.SeveridadMedia))
	assert.Less(t, entity.OrdenSeveridad(entity.SeveridadMedia), entity.OrdenSeveridad(entity.SeveridadBaja))
	assert.Greater(t, entity.OrdenSeveridad("OTRA"), entity.OrdenSeveridad(entity.SeveridadBaja),
		"una severidad desconocida ordena al final")
}
