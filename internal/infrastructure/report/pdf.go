// Package report implementa los generadores de reportes de inventario y
// entregas (PDF vía Maroto v2 y Excel vía excelize).
package report

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator genera el reporte de entregas en PDF usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerarReporteEntregas genera el PDF de entregas del rango y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerarReporteEntregas(
	entregas []*entity.EntregaCompleta,
	desde, hasta time.Time,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de Entregas", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(desde, hasta, len(entregas)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(entregas) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(entregas))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y rango + total de filas (der).
func headerRow(desde, hasta time.Time, total int) core.Row {
	rango := fmt.Sprintf("%s — %s", desde.Format("02/01/2006"), hasta.Format("02/01/2006"))
	return row.New(16).Add(
		col.New(7).Add(
			text.New("REPORTE DE ENTREGAS DE INSUMOS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Inventario de insumos de oficina", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Periodo: "+rango, props.Text{
				Size: 9, Align: align.Right, Top: 2,
			}),
			text.New(fmt.Sprintf("Entregas: %d", total), props.Text{
				Size: 9, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de entregas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Empleado", 3, align.Left),
		h("Insumo", 3, align.Left),
		h("Cant.", 1, align.Center),
		h("Valor", 2, align.Right),
		h("Entregó", 1, align.Left),
	)
}

// tableDetailRows: una fila por entrega.
func tableDetailRows(entregas []*entity.EntregaCompleta) []core.Row {
	result := make([]core.Row, 0, len(entregas))
	for _, e := range entregas {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(
				e.FechaEntrega.Format("02/01/2006 15:04"),
				props.Text{Size: 8, Align: align.Left, Top: 1},
			)),
			col.New(3).Add(text.New(
				e.EmpleadoNombre,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(3).Add(text.New(
				e.InsumoNombre,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", e.Cantidad),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(e.ValorTotal.StringFixed(0)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				e.EntregadoPor,
				props.Text{Size: 7, Align: align.Left, Top: 1},
			)),
		))
	}
	return result
}

// totalsRow: unidades y valor total del rango, alineados a la derecha.
func totalsRow(entregas []*entity.EntregaCompleta) core.Row {
	unidades := 0
	valor := decimal.Zero
	for _, e := range entregas {
		unidades += e.Cantidad
		valor = valor.Add(e.ValorTotal)
	}

	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}

	return row.New(16).Add(
		col.New(6),
		col.New(3).Add(
			label("Unidades entregadas:"),
			label("Valor total:"),
		),
		col.New(3).Add(
			value(fmt.Sprintf("%d", unidades)),
			value("$"+formatMoney(valor.StringFixed(0))),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
