package printing

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

//go:embed templates/invoice.html.tmpl
var templateFS embed.FS

var invoiceTemplate = template.Must(
	template.New("invoice.html.tmpl").
		Funcs(template.FuncMap{
			"rupiah":  FormatRupiah,
			"tanggal": FormatTanggal,
			"deref":   deref,
		}).
		ParseFS(templateFS, "templates/invoice.html.tmpl"),
)

// Letterhead is the issuing company block printed on every page.
type Letterhead struct {
	Company  string
	Address  string
	Phone    string
	Email    string
	City     string
	BankInfo string
}

type invoicePage struct {
	Invoice     model.InvoiceDetail
	Contact     string
	AmountWords string
	QR          template.URL
}

type invoiceDocument struct {
	Letterhead
	PrintedAt time.Time
	Pages     []invoicePage
}

// RenderHTML writes one HTML document with a page per invoice.
func RenderHTML(w io.Writer, lh Letterhead, printedAt time.Time, invoices []model.InvoiceDetail) error {
	doc := invoiceDocument{Letterhead: lh, PrintedAt: printedAt, Pages: make([]invoicePage, 0, len(invoices))}
	for _, inv := range invoices {
		contact := "N/A"
		if r, ok := inv.Primary(); ok && r.Contact != "" {
			contact = r.Contact
		}
		qr, err := verificationQR(inv)
		if err != nil {
			return fmt.Errorf("invoice %d qr: %w", inv.ID, err)
		}
		doc.Pages = append(doc.Pages, invoicePage{
			Invoice:     inv,
			Contact:     contact,
			AmountWords: AmountInWords(inv.Grand),
			QR:          qr,
		})
	}
	return invoiceTemplate.Execute(w, doc)
}

// QRPayload is the text encoded in the QR code printed on each page:
// invoice id, ticket and grand total, separated by "|".
func QRPayload(inv model.InvoiceDetail) string {
	return fmt.Sprintf("INV-%d|%s|%s", inv.ID, inv.TicketLabel(), inv.Grand.StringFixed(0))
}

func verificationQR(inv model.InvoiceDetail) (template.URL, error) {
	png, err := qrcode.Encode(QRPayload(inv), qrcode.Medium, 96)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
