package entity

import "time"

// Empleado representa un funcionario que puede recibir insumos.
type Empleado struct {
	ID            int64
	Codigo        string // EMP-REG-<4 dígitos>, único, asignado al crear
	NombreCompleto string
	Cargo         string
	Departamento  string
	Cedula        string // 6 a 12 dígitos, única
	Email         string
	Telefono      string
	Nota          string
	Activo        bool
	FechaCreacion time.Time
}
