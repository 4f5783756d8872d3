package order

import (
	"bytes"
	"fmt"
	"io"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

var receiptText = map[string]map[string]string{
	"en": {"title": "Order receipt", "order": "Order", "date": "Date", "status": "Status", "school": "School",
		"grade": "Grade", "item": "Item", "qty": "Qty", "unit": "Unit", "line": "Total", "subtotal": "Subtotal",
		"tax": "Sales tax (8.75%)", "total": "Total"},
	"es": {"title": "Recibo de pedido", "order": "Pedido", "date": "Fecha", "status": "Estado", "school": "Escuela",
		"grade": "Grado", "item": "Artículo", "qty": "Cant.", "unit": "Precio", "line": "Total", "subtotal": "Subtotal",
		"tax": "Impuesto (8.75%)", "total": "Total"},
}

// WriteReceipt renders o as a PDF with a QR code of the order id. Amounts are rounded for display only.
func WriteReceipt(w io.Writer, o *Order, lang string) error {
	text, ok := receiptText[lang]
	if !ok {
		lang, text = "en", receiptText["en"]
	}

	qrPNG, err := qrcode.Encode(o.ID.String(), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(text["title"]))
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 11)
	meta := [][2]string{
		{text["order"], o.ID.String()},
		{text["date"], o.CreatedAt.Format("2006-01-02 15:04")},
		{text["status"], o.Status.Label(lang)},
	}
	if o.SchoolName != "" {
		meta = append(meta, [2]string{text["school"], o.SchoolName})
	}
	if o.Grade != "" {
		meta = append(meta, [2]string{text["grade"], o.Grade})
	}
	for _, kv := range meta {
		pdf.Cell(30, 7, tr(kv[0]+":"))
		pdf.Cell(0, 7, tr(kv[1]))
		pdf.Ln(7)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 20, 35, 35, false, imageOpts, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(100, 8, tr(text["item"]), "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, tr(text["qty"]), "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, tr(text["unit"]), "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, tr(text["line"]), "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, li := range o.Items {
		pdf.CellFormat(100, 7, tr(li.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", li.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, li.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, li.LineTotal().StringFixed(2), "", 1, "R", false, 0, "")
	}

	subtotal := cart.Subtotal(o.Items)
	totals := [][2]string{
		{text["subtotal"], subtotal.StringFixed(2)},
		{text["tax"], o.Total.Sub(subtotal).StringFixed(2)},
		{text["total"], o.Total.StringFixed(2)},
	}
	pdf.Ln(4)
	for i, kv := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Arial", "B", 11)
		}
		pdf.CellFormat(150, 7, tr(kv[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, kv[1], "", 1, "R", false, 0, "")
	}

	return pdf.Output(w)
}
