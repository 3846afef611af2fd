// Package model holds the domain types shared by repositories, services and
// handlers.  Money amounts use decimal.Decimal and are emitted as JSON
// numbers.
package model

import "github.com/shopspring/decimal"

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
