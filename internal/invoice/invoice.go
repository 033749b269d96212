// Package invoice renders single-order PDF invoices.
package invoice

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/pricing"
)

const utf8Family = "invoice"

type Renderer struct {
	// FontPath is an optional TrueType font with Cyrillic glyphs. Without
	// it the core Helvetica font is used and Cyrillic is transliterated.
	FontPath string
	Currency string

	uncompressed bool
}

func Filename(orderID uint) string {
	return fmt.Sprintf("invoice_order_%d.pdf", orderID)
}

func (r *Renderer) Render(w io.Writer, order *models.Order, quote pricing.Quote) error {
	var font []byte
	if r.FontPath != "" {
		b, err := os.ReadFile(r.FontPath)
		if err != nil {
			return fmt.Errorf("invoice font: %w", err)
		}
		font = b
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!r.uncompressed)
	pdf.SetTitle(fmt.Sprintf("Invoice for order %d", order.ID), true)
	pdf.SetCreator("gypsum_shop", true)

	cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
	family, tr := "Helvetica", func(s string) string { return cp1252(transliterate(s)) }
	if font != nil {
		pdf.AddUTF8FontFromBytes(utf8Family, "", font)
		pdf.AddUTF8FontFromBytes(utf8Family, "B", font)
		family, tr = utf8Family, func(s string) string { return s }
	}

	pdf.AddPage()

	pdf.SetFont(family, "B", 18)
	pdf.CellFormat(0, 12, "INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "", 11)
	lines := []string{
		"Order No. " + strconv.FormatUint(uint64(order.ID), 10),
		"Date: " + order.CreatedAt.Format("2006-01-02 15:04"),
		"Client: " + order.ClientName,
		"Delivery address: " + order.DeliveryAddress,
		"Status: " + string(order.Status) + " / " + string(order.PaymentStatus),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{70, 20, 20, 35, 35}
	pdf.SetFont(family, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Product", "Unit", "Qty", "Unit price", "Total"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 10)
	row := []string{
		order.Product.Name,
		order.Product.Unit,
		strconv.FormatUint(uint64(quote.Quantity), 10),
		quote.UnitAmount(),
		quote.Amount(),
	}
	aligns := []string{"L", "C", "R", "R", "R"}
	for i, v := range row {
		pdf.CellFormat(widths[i], 8, tr(v), "1", 0, aligns[i], false, 0, "")
	}
	pdf.Ln(12)

	pdf.SetFont(family, "B", 13)
	pdf.CellFormat(0, 10, fmt.Sprintf("TOTAL: %s %s", quote.Amount(), r.Currency), "", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render invoice %d: %w", order.ID, err)
	}
	return pdf.Output(w)
}
