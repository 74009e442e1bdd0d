package empleados

import (
	"regexp"
	"strings"

	"github.com/deleginsumos/deleginsumos/internal/domain"
	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
	"github.com/deleginsumos/deleginsumos/internal/domain/repository"
)

var (
	patronCedula = regexp.MustCompile(`^\d{6,12}$`)
	patronEmail  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// EmpleadoUseCase casos de uso CRUD y de consulta para empleados.
type EmpleadoUseCase struct {
	repo repository.EmpleadoRepository
}

// NewEmpleadoUseCase construye el caso de uso.
func NewEmpleadoUseCase(repo repository.EmpleadoRepository) *EmpleadoUseCase {
	return &EmpleadoUseCase{repo: repo}
}

// CrearEmpleadoInput entrada para crear un empleado.
type CrearEmpleadoInput struct {
	NombreCompleto string
	Cargo          string
	Departamento   string
	Cedula         string
	Email          string
	Telefono       string
	Nota           string
}

// Crear valida y persiste un empleado nuevo. La cédula se pre-chequea con una
// búsqueda exacta; el índice único de la BD es la garantía final ante carreras.
func (uc *EmpleadoUseCase) Crear(in CrearEmpleadoInput) (*entity.Empleado, error) {
	if err := validarEmpleado(in); err != nil {
		return nil, err
	}

	existente, err := uc.repo.GetByCedula(in.Cedula)
	if err != nil {
		return nil, err
	}
	if existente != nil {
		return nil, domain.NewDuplicateError("empleado", "cedula", in.Cedula)
	}

	empleado := &entity.Empleado{
		NombreCompleto: strings.TrimSpace(in.NombreCompleto),
		Cargo:          strings.TrimSpace(in.Cargo),
		Departamento:   strings.TrimSpace(in.Departamento),
		Cedula:         in.Cedula,
		Email:          strings.TrimSpace(in.Email),
		Telefono:       strings.TrimSpace(in.Telefono),
		Nota:           in.Nota,
		Activo:         true,
	}
	if _, err := uc.repo.Create(empleado); err != nil {
		return nil, err
	}
	return uc.Obtener(empleado.ID)
}

// Obtener obtiene un empleado por ID.
func (uc *EmpleadoUseCase) Obtener(id int64) (*entity.Empleado, error) {
	empleado, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if empleado == nil {
		return nil, domain.NewNotFoundError("empleado", id)
	}
	return empleado, nil
}

// ObtenerPorCedula obtiene un empleado por cédula (coincidencia exacta).
func (uc *EmpleadoUseCase) ObtenerPorCedula(cedula string) (*entity.Empleado, error) {
	empleado, err := uc.repo.GetByCedula(cedula)
	if err != nil {
		return nil, err
	}
	if empleado == nil {
		return nil, domain.NewNotFoundError("empleado", 0)
	}
	return empleado, nil
}

// Listar lista empleados, opcionalmente solo los activos.
func (uc *EmpleadoUseCase) Listar(soloActivos bool) ([]*entity.Empleado, error) {
	return uc.repo.GetAll(soloActivos)
}

// PorDepartamento lista los empleados activos de un departamento.
func (uc *EmpleadoUseCase) PorDepartamento(departamento string) ([]*entity.Empleado, error) {
	return uc.repo.GetByDepartamento(departamento)
}

// Buscar busca por subcadena en nombre, cédula, cargo y departamento.
func (uc *EmpleadoUseCase) Buscar(termino string, soloActivos bool) ([]*entity.Empleado, error) {
	termino = strings.TrimSpace(termino)
	if termino == "" {
		return uc.repo.GetAll(soloActivos)
	}
	return uc.repo.Search(termino, soloActivos)
}

// Actualizar reescribe los campos presentes en el mapa. Devuelve false si no
// había nada que cambiar.
func (uc *EmpleadoUseCase) Actualizar(id int64, campos map[string]any) (bool, error) {
	if cedula, ok := campos["cedula"].(string); ok && !patronCedula.MatchString(cedula) {
		return false, domain.NewValidationError("cedula", "debe tener entre 6 y 12 dígitos")
	}
	if email, ok := campos["email"].(string); ok && email != "" && !patronEmail.MatchString(email) {
		return false, domain.NewValidationError("email", "formato inválido")
	}
	if nombre, ok := campos["nombre_completo"].(string); ok && strings.TrimSpace(nombre) == "" {
		return false, domain.NewValidationError("nombre_completo", "requerido")
	}
	return uc.repo.Update(id, campos)
}

// Eliminar da de baja (suave) o elimina definitivamente (duro) un empleado.
// El modo duro falla con error de negocio si el empleado tiene entregas.
func (uc *EmpleadoUseCase) Eliminar(id int64, duro bool) error {
	return uc.repo.Delete(id, duro)
}

// Departamentos lista los departamentos en uso.
func (uc *EmpleadoUseCase) Departamentos() ([]string, error) {
	return uc.repo.Departamentos()
}

func validarEmpleado(in CrearEmpleadoInput) error {
	if strings.TrimSpace(in.NombreCompleto) == "" {
		return domain.NewValidationError("nombre_completo", "requerido")
	}
	if !patronCedula.MatchString(in.Cedula) {
		return domain.NewValidationError("cedula", "debe tener entre 6 y 12 dígitos")
	}
	if in.Email != "" && !patronEmail.MatchString(strings.TrimSpace(in.Email)) {
		return domain.NewValidationError("email", "formato inválido")
	}
	return nil
}
