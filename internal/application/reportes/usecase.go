package reportes

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
	"github.com/deleginsumos/deleginsumos/internal/domain/repository"
)

// GeneradorPDFEntregas puerto del generador de PDF de entregas.
type GeneradorPDFEntregas interface {
	GenerarReporteEntregas(entregas []*entity.EntregaCompleta, desde, hasta time.Time) ([]byte, error)
}

// GeneradorExcelInventario puerto del generador de Excel de inventario.
type GeneradorExcelInventario interface {
	GenerarReporteInventario(ruta string, insumos []*entity.Insumo, resumen []*entity.ResumenCategoria) error
}

// ReporteUseCase genera los reportes leyendo exclusivamente a través de los
// repositorios, nunca con SQL directo.
type ReporteUseCase struct {
	insumoRepo  repository.InsumoRepository
	entregaRepo repository.EntregaRepository
	pdf         GeneradorPDFEntregas
	excel       GeneradorExcelInventario
	directorio  string
}

// NewReporteUseCase construye el caso de uso. directorio es la carpeta de salida.
func NewReporteUseCase(
	insumoRepo repository.InsumoRepository,
	entregaRepo repository.EntregaRepository,
	pdf GeneradorPDFEntregas,
	excel GeneradorExcelInventario,
	directorio string,
) *ReporteUseCase {
	if directorio == "" {
		directorio = "reportes"
	}
	return &ReporteUseCase{
		insumoRepo:  insumoRepo,
		entregaRepo: entregaRepo,
		pdf:         pdf,
		excel:       excel,
		directorio:  directorio,
	}
}

// ReporteEntregasPDF genera el PDF de entregas del rango y devuelve la ruta
// del archivo escrito.
func (uc *ReporteUseCase) ReporteEntregasPDF(desde, hasta time.Time) (string, error) {
	entregas, err := uc.entregaRepo.GetByRangoFechas(desde, hasta)
	if err != nil {
		return "", err
	}
	contenido, err := uc.pdf.GenerarReporteEntregas(entregas, desde, hasta)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(uc.directorio, 0o755); err != nil {
		return "", fmt.Errorf("crear directorio de reportes: %w", err)
	}
	ruta := filepath.Join(uc.directorio,
		fmt.Sprintf("entregas_%s.pdf", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(ruta, contenido, 0o644); err != nil {
		return "", fmt.Errorf("escribir reporte: %w", err)
	}
	return ruta, nil
}

// ReporteInventarioExcel genera el .xlsx de inventario y devuelve la ruta
// del archivo escrito.
func (uc *ReporteUseCase) ReporteInventarioExcel() (string, error) {
	insumos, err := uc.insumoRepo.GetAll(true)
	if err != nil {
		return "", err
	}
	resumen, err := uc.insumoRepo.ResumenPorCategoria()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(uc.directorio, 0o755); err != nil {
		return "", fmt.Errorf("crear directorio de reportes: %w", err)
	}
	ruta := filepath.Join(uc.directorio,
		fmt.Sprintf("inventario_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := uc.excel.GenerarReporteInventario(ruta, insumos, resumen); err != nil {
		return "", err
	}
	return ruta, nil
}
