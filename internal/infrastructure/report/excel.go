package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
)

// ExcelReportGenerator genera el reporte de inventario en .xlsx usando excelize.
type ExcelReportGenerator struct{}

// NewExcelReportGenerator construye el generador.
func NewExcelReportGenerator() *ExcelReportGenerator { return &ExcelReportGenerator{} }

// GenerarReporteInventario escribe el archivo .xlsx con una hoja de inventario
// detallado y otra con el resumen por categoría.
func (g *ExcelReportGenerator) GenerarReporteInventario(
	ruta string,
	insumos []*entity.Insumo,
	resumen []*entity.ResumenCategoria,
) error {
	f := excelize.NewFile()
	defer f.Close()

	const hojaInventario = "Inventario"
	f.SetSheetName("Sheet1", hojaInventario)

	estiloCabecera, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00467F"}},
	})
	if err != nil {
		return fmt.Errorf("excel: crear estilo: %w", err)
	}

	cabeceras := []string{"Código", "Nombre", "Categoría", "Stock", "Mínimo", "Máximo",
		"Unidad", "Precio unitario", "Proveedor", "Estado"}
	for i, c := range cabeceras {
		celda, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(hojaInventario, celda, c); err != nil {
			return fmt.Errorf("excel: cabecera: %w", err)
		}
	}
	ultima, _ := excelize.CoordinatesToCellName(len(cabeceras), 1)
	_ = f.SetCellStyle(hojaInventario, "A1", ultima, estiloCabecera)

	for fila, i := range insumos {
		valores := []any{
			i.Codigo, i.Nombre, i.Categoria, i.CantidadActual, i.CantidadMinima,
			i.CantidadMaxima, i.UnidadMedida, i.PrecioUnitario.InexactFloat64(),
			i.Proveedor, i.EstadoStock(),
		}
		for colIdx, v := range valores {
			celda, _ := excelize.CoordinatesToCellName(colIdx+1, fila+2)
			if err := f.SetCellValue(hojaInventario, celda, v); err != nil {
				return fmt.Errorf("excel: fila %d: %w", fila+2, err)
			}
		}
	}
	_ = f.SetColWidth(hojaInventario, "A", "C", 22)
	_ = f.SetColWidth(hojaInventario, "H", "I", 16)

	const hojaResumen = "Resumen"
	if _, err := f.NewSheet(hojaResumen); err != nil {
		return fmt.Errorf("excel: hoja resumen: %w", err)
	}
	cabResumen := []string{"Categoría", "Insumos", "Stock total", "Valor total", "Críticos", "Bajos"}
	for i, c := range cabResumen {
		celda, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(hojaResumen, celda, c)
	}
	ultimaRes, _ := excelize.CoordinatesToCellName(len(cabResumen), 1)
	_ = f.SetCellStyle(hojaResumen, "A1", ultimaRes, estiloCabecera)

	for fila, rc := range resumen {
		valores := []any{
			rc.Categoria, rc.TotalInsumos, rc.StockTotal,
			rc.ValorTotal.InexactFloat64(), rc.InsumosCriticos, rc.InsumosBajos,
		}
		for colIdx, v := range valores {
			celda, _ := excelize.CoordinatesToCellName(colIdx+1, fila+2)
			_ = f.SetCellValue(hojaResumen, celda, v)
		}
	}
	_ = f.SetColWidth(hojaResumen, "A", "A", 22)

	celdaFecha, _ := excelize.CoordinatesToCellName(1, len(resumen)+3)
	_ = f.SetCellValue(hojaResumen, celdaFecha,
		"Generado: "+time.Now().Format("2006-01-02 15:04:05"))

	if err := f.SaveAs(ruta); err != nil {
		return fmt.Errorf("excel: guardar %s: %w", ruta, err)
	}
	return nil
}
