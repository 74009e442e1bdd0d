package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	sqlite3 "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// auditar emite la línea de auditoría de toda mutación, con la tabla objetivo
// explícita (nunca inferida del texto SQL).
func auditar(tabla, operacion string, id int64) {
	log.Debug().
		Str("tabla", tabla).
		Str("operacion", operacion).
		Int64("id", id).
		Msg("mutación ejecutada")
}

// esDuplicadoDe verifica que un error sea violación de unicidad sobre alguno
// de los índices/columnas indicados.
func esDuplicadoDe(err error, indicadores ...string) bool {
	if !isUniqueViolation(err) {
		return false
	}
	msg := err.Error()
	for _, ind := range indicadores {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}

// mensajeStockInsuficiente texto del RAISE(ABORT) del trigger de validación de stock.
const mensajeStockInsuficiente = "Stock insuficiente para realizar la entrega"

// codigoSQLite extrae el código de error extendido del driver, o 0.
func codigoSQLite(err error) int {
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code()
	}
	return 0
}

// isUniqueViolation verifica si un error es una violación de índice único (SQLITE_CONSTRAINT_UNIQUE).
func isUniqueViolation(err error) bool {
	if codigoSQLite(err) == sqlitelib.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isConstraintViolation verifica si un error es cualquier violación de constraint
// (CHECK, FK, UNIQUE o un RAISE de trigger).
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if codigoSQLite(err)&0xff == sqlitelib.SQLITE_CONSTRAINT {
		return true
	}
	return strings.Contains(err.Error(), "constraint failed") || isStockTriggerAbort(err)
}

// isStockTriggerAbort verifica si un error proviene del trigger de stock insuficiente.
func isStockTriggerAbort(err error) bool {
	return err != nil && strings.Contains(err.Error(), mensajeStockInsuficiente)
}

// formatoTiempo formato con el que SQLite materializa CURRENT_TIMESTAMP.
const formatoTiempo = "2006-01-02 15:04:05"

// parseTiempo convierte un timestamp textual de SQLite a time.Time (UTC).
// Devuelve el cero de time.Time si el valor es NULL o no parsea.
func parseTiempo(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	for _, layout := range []string{formatoTiempo, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v.String); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
