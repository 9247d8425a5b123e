package infra

// pdf.go: order receipt generation using go-pdf/fpdf.
// The receipt lists every line with its frozen unit price and the pedido total;
// it is attached to the creation email sent to the client.

import (
	"fmt"
	"os"
	"path/filepath"

	"tiendaapi/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerarComprobantePedido writes storagePath/pedido_{id}.pdf and returns its path.
// Lines are expected to have Producto preloaded; missing names fall back to the id.
func GenerarComprobantePedido(p *model.Pedido, tiendaNombre, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("pedido_%s.pdf", p.ID))

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr(tiendaNombre), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr("Comprobante de pedido"), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, "Pedido: "+p.ID.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, "Fecha: "+p.CreatedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("Cliente: "+p.ClienteNombre), "", 1, "L", false, 0, "")
	if p.DireccionEntrega != nil {
		pdf.CellFormat(contentW, 4, tr("Entrega: "+*p.DireccionEntrega), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 4, tr("Pago: "+p.MetodoPago), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Lines ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.50
	col2 := contentW * 0.12
	col3 := contentW * 0.19
	col4 := contentW * 0.19

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 6, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Precio", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, l := range p.Lineas {
		nombre := l.ProductoID.String()[:8]
		if l.Producto != nil {
			nombre = l.Producto.Nombre
		}
		if r := []rune(nombre); len(r) > 40 {
			nombre = string(r[:39]) + "..."
		}
		pdf.CellFormat(col1, 5, tr(nombre), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("%d", l.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+l.PrecioUnitario.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 5, "$"+l.Subtotal().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1+col2+col3, 7, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 7, "$"+p.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su compra!"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
