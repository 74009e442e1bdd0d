package repository

import "github.com/deleginsumos/deleginsumos/internal/domain/entity"

// EmpleadoRepository define el puerto de persistencia para empleados.
type EmpleadoRepository interface {
	Create(empleado *entity.Empleado) (int64, error)
	GetByID(id int64) (*entity.Empleado, error)
	GetByCedula(cedula string) (*entity.Empleado, error)
	GetAll(soloActivos bool) ([]*entity.Empleado, error)
	GetByDepartamento(departamento string) ([]*entity.Empleado, error)
	Search(termino string, soloActivos bool) ([]*entity.Empleado, error)
	Update(id int64, campos map[string]any) (bool, error)
	// Delete en modo duro se rechaza con error de negocio si el empleado tiene
	// entregas registradas; nunca se deja salir el error FK crudo.
	Delete(id int64, duro bool) error
	Departamentos() ([]string, error)
	CountEntregas(id int64) (int, error)
}
