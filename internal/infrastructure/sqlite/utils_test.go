package sqlite

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTiempo(t *testing.T) {
	valido := sql.NullString{String: "2026-08-23 14:05:09", Valid: true}
	parsed := parseTiempo(valido)
	assert.Equal(t, time.Date(2026, 8, 23, 14, 5, 9, 0, time.UTC), parsed)

	assert.True(t, parseTiempo(sql.NullString{}).IsZero(), "NULL produce tiempo cero")
	assert.True(t, parseTiempo(sql.NullString{String: "basura", Valid: true}).IsZero(),
		"un formato irreconocible produce tiempo cero")
}

func TestClasificacionDeErrores_PorMensaje(t *testing.T) {
	unique := errors.New("constraint failed: UNIQUE constraint failed: empleados.cedula")
	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isConstraintViolation(unique))

	stock := errors.New("SQL logic error: Stock insuficiente para realizar la entrega (1811)")
	assert.True(t, isStockTriggerAbort(stock))
	assert.False(t, isUniqueViolation(stock))

	otro := errors.New("disk I/O error")
	assert.False(t, isUniqueViolation(otro))
	assert.False(t, isConstraintViolation(otro))
	assert.False(t, isStockTriggerAbort(otro))

	assert.True(t, esDuplicadoDe(unique, "empleados.cedula"))
	assert.False(t, esDuplicadoDe(unique, "insumos.codigo"))
}
