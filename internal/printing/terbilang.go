package printing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var satuan = [...]string{"", "satu", "dua", "tiga", "empat", "lima", "enam", "tujuh", "delapan", "sembilan"}

// Terbilang spells n in Indonesian words, e.g. 810000 becomes
// "delapan ratus sepuluh ribu".  Negative numbers are prefixed with "minus".
func Terbilang(n int64) string {
	switch {
	case n == 0:
		return "nol"
	case n < 0:
		return "minus " + Terbilang(-n)
	}
	return strings.Join(strings.Fields(spell(n)), " ")
}

func spell(n int64) string {
	switch {
	case n == 0:
		return ""
	case n == 10:
		return "sepuluh"
	case n == 11:
		return "sebelas"
	case n < 10:
		return satuan[n]
	case n < 20:
		return satuan[n-10] + " belas"
	case n < 100:
		return satuan[n/10] + " puluh " + satuan[n%10]
	case n < 200:
		return "seratus " + spell(n%100)
	case n < 1000:
		return satuan[n/100] + " ratus " + spell(n%100)
	case n < 2000:
		return "seribu " + spell(n%1000)
	case n < 1_000_000:
		return spell(n/1000) + " ribu " + spell(n%1000)
	case n < 1_000_000_000:
		return spell(n/1_000_000) + " juta " + spell(n%1_000_000)
	case n < 1_000_000_000_000:
		return spell(n/1_000_000_000) + " miliar " + spell(n%1_000_000_000)
	}
	return spell(n/1_000_000_000_000) + " triliun " + spell(n%1_000_000_000_000)
}

// AmountInWords renders an amount the way it is printed on invoices:
// rounded to whole rupiah, upper case, followed by "RUPIAH".
func AmountInWords(amount decimal.Decimal) string {
	return strings.ToUpper(Terbilang(amount.Round(0).IntPart())) + " RUPIAH"
}
