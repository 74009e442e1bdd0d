package domain

import (
	"fmt"
	"math/rand"
	"time"
)

// Generación de códigos públicos legibles. El número aleatorio de 4 dígitos
// puede colisionar; el índice único en la columna codigo es la garantía final
// y quien crea registros reintenta ante un duplicado de código.

// GenerarCodigoInsumo devuelve un código con formato INS-<año>-<4 dígitos>.
func GenerarCodigoInsumo() string {
	return fmt.Sprintf("INS-%d-%04d", time.Now().Year(), 1000+rand.Intn(9000))
}

// GenerarCodigoEmpleado devuelve un código con formato EMP-REG-<4 dígitos>.
func GenerarCodigoEmpleado() string {
	return fmt.Sprintf("EMP-REG-%04d", 1000+rand.Intn(9000))
}

// GenerarCodigoEntrega devuelve un código con formato ENT-<4 dígitos>.
func GenerarCodigoEntrega() string {
	return fmt.Sprintf("ENT-%04d", 1000+rand.Intn(9000))
}
