package printing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idr = message.NewPrinter(language.Indonesian)

// FormatRupiah formats amount with Indonesian separators: "Rp 1.250.000"
// or "Rp 1.250.000,50" when there are cents.
func FormatRupiah(amount decimal.Decimal) string {
	abs := amount.Abs()
	whole := idr.Sprintf("%d", abs.Truncate(0).IntPart())
	if amount.IsNegative() {
		whole = "-" + whole
	}
	_, frac, _ := strings.Cut(abs.StringFixed(2), ".")
	if frac == "00" {
		return "Rp " + whole
	}
	return "Rp " + whole + "," + frac
}

var bulan = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatTanggal renders t as a long Indonesian date, e.g. "10 Maret 2025".
func FormatTanggal(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2") + " " + bulan[t.Month()-1] + " " + t.Format("2006")
}
