package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrBusinessRule      = errors.New("regla de negocio violada")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrIntegrity         = errors.New("violación de integridad")
	ErrConnection        = errors.New("error de conexión a la base de datos")
	ErrStorage           = errors.New("error de almacenamiento")
	ErrMigration         = errors.New("error de migración de esquema")
	ErrBackup            = errors.New("error de backup")
)

// ValidationError error de validación de entrada con el campo afectado.
type ValidationError struct {
	Campo  string
	Motivo string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación fallida en '%s': %s", e.Campo, e.Motivo)
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError construye un error de validación.
func NewValidationError(campo, motivo string) *ValidationError {
	return &ValidationError{Campo: campo, Motivo: motivo}
}

// DuplicateError conflicto de unicidad con entidad, campo y valor en conflicto.
type DuplicateError struct {
	Entidad string
	Campo   string
	Valor   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("ya existe un registro de %s con %s '%s'", e.Entidad, e.Campo, e.Valor)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// NewDuplicateError construye un error de registro duplicado.
func NewDuplicateError(entidad, campo, valor string) *DuplicateError {
	return &DuplicateError{Entidad: entidad, Campo: campo, Valor: valor}
}

// NotFoundError registro inexistente, con la entidad y el ID buscado.
type NotFoundError struct {
	Entidad string
	ID      int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s con id %d no encontrado", e.Entidad, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError construye un error de registro no encontrado.
func NewNotFoundError(entidad string, id int64) *NotFoundError {
	return &NotFoundError{Entidad: entidad, ID: id}
}

// InsufficientStockError stock insuficiente para una entrega; lleva los datos
// necesarios para armar un mensaje preciso al usuario.
type InsufficientStockError struct {
	Insumo      string
	StockActual int
	Solicitada  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente de '%s': disponible %d, solicitado %d",
		e.Insumo, e.StockActual, e.Solicitada)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NewInsufficientStockError construye un error de stock insuficiente.
func NewInsufficientStockError(insumo string, actual, solicitada int) *InsufficientStockError {
	return &InsufficientStockError{Insumo: insumo, StockActual: actual, Solicitada: solicitada}
}

// BusinessError regla de negocio violada (empleado inelegible, borrado con entregas, etc.).
type BusinessError struct {
	Motivo string
}

func (e *BusinessError) Error() string { return e.Motivo }

func (e *BusinessError) Unwrap() error { return ErrBusinessRule }

// NewBusinessError construye un error de regla de negocio.
func NewBusinessError(motivo string) *BusinessError {
	return &BusinessError{Motivo: motivo}
}
