// Package printing renders invoices to PDF: an html/template document,
// printed by headless Chrome, optionally archived to S3.
package printing

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

// Renderer converts a complete HTML document to PDF bytes.
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Archive keeps a copy of each rendered document.
type Archive interface {
	Store(ctx context.Context, filename string, pdf []byte) (string, error)
}

// ErrNoInvoices is returned when asked to print nothing.
var ErrNoInvoices = errors.New("printing: no invoices")

// Document is a rendered PDF and its download name.
type Document struct {
	Filename string
	PDF      []byte
}

// InvoicePrinter produces invoice PDFs.
type InvoicePrinter struct {
	renderer   Renderer
	archive    Archive
	letterhead Letterhead
	loc        *time.Location
	logger     zerolog.Logger
	now        func() time.Time
}

// NewInvoicePrinter wires the printer.  archive may be nil.
func NewInvoicePrinter(renderer Renderer, archive Archive, lh Letterhead, loc *time.Location, logger zerolog.Logger) *InvoicePrinter {
	if loc == nil {
		loc = time.UTC
	}
	return &InvoicePrinter{renderer: renderer, archive: archive, letterhead: lh, loc: loc, logger: logger, now: time.Now}
}

// Print renders one page per invoice, in the given order.  Archiving is
// best-effort and never fails the call.
func (p *InvoicePrinter) Print(ctx context.Context, invoices []model.InvoiceDetail) (Document, error) {
	if len(invoices) == 0 {
		return Document{}, ErrNoInvoices
	}
	now := p.now()
	var html bytes.Buffer
	if err := RenderHTML(&html, p.letterhead, now.In(p.loc), invoices); err != nil {
		return Document{}, err
	}
	pdf, err := p.renderer.Render(ctx, html.String())
	if err != nil {
		return Document{}, err
	}
	doc := Document{Filename: Filename(invoices[0].CustomerName, now), PDF: pdf}

	if p.archive != nil {
		if key, err := p.archive.Store(ctx, doc.Filename, pdf); err != nil {
			p.logger.Warn().Err(err).Str("filename", doc.Filename).Msg("invoice pdf not archived")
		} else {
			p.logger.Info().Str("key", key).Int("invoices", len(invoices)).Msg("invoice pdf archived")
		}
	}
	return doc, nil
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]`)

// Filename is invoice_<customer>_<YYYY-MM-DD>.pdf with the customer name
// lower-cased and every other character replaced by an underscore.  The
// date is the UTC calendar date of now.
func Filename(customer string, now time.Time) string {
	if customer == "" {
		customer = "customer"
	}
	name := unsafeFilename.ReplaceAllString(strings.ToLower(customer), "_")
	return "invoice_" + name + "_" + now.UTC().Format("2006-01-02") + ".pdf"
}
