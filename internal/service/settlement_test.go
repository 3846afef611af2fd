package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

var fixedNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func sampleDetail(status model.InvoiceStatus) model.InvoiceDetail {
	return model.NewInvoiceDetail(model.Invoice{
		ID:           5,
		CustomerName: "PT Maju",
		TotalAmount:  decimal.NewFromInt(800000),
		Fee:          decimal.NewFromInt(10000),
		Status:       status,
	}, []model.Reservation{{ID: 1, Name: "Siti", TicketID: "TK-001"}})
}

func newDeriver() (*SettlementDeriver, *fakeReports, *fakeActivity, *fakePublisher) {
	reports, activity, events := newFakeReports(), &fakeActivity{}, &fakePublisher{}
	return NewSettlementDeriver(reports, activity, events, zerolog.Nop()), reports, activity, events
}

func TestStatusReport(t *testing.T) {
	unpaid := StatusReport(sampleDetail(model.InvoiceUnpaid))
	require.NotNil(t, unpaid)
	assert.Equal(t, model.ReportExpense, unpaid.Type)
	assert.Equal(t, "800000", unpaid.Amount.String())
	assert.Equal(t, "Pemesanan untuk Siti", unpaid.Description)
	assert.Equal(t, model.SystemActor, unpaid.CreatedBy)

	paid := StatusReport(sampleDetail(model.InvoicePaid))
	require.NotNil(t, paid)
	assert.Equal(t, model.ReportIncome, paid.Type)
	assert.Equal(t, "810000", paid.Amount.String())
	assert.Equal(t, "Pembayaran dari Siti", paid.Description)

	assert.Nil(t, StatusReport(sampleDetail("")))
}

func TestOnInvoiceCreatedIsIdempotent(t *testing.T) {
	d, reports, activity, _ := newDeriver()
	ctx := context.Background()

	first, err := d.OnInvoiceCreated(ctx, sampleDetail(model.InvoiceUnpaid))
	require.NoError(t, err)
	assert.True(t, first.ReportCreated)

	again, err := d.OnInvoiceCreated(ctx, sampleDetail(model.InvoiceUnpaid))
	require.NoError(t, err)
	assert.False(t, again.ReportCreated)

	assert.Equal(t, 1, reports.count())
	assert.Empty(t, activity.all())
}

func TestOnInvoiceUpdatedSettles(t *testing.T) {
	d, reports, activity, events := newDeriver()

	out, err := d.OnInvoiceUpdated(context.Background(), model.InvoiceUnpaid, sampleDetail(model.InvoicePaid), "Finance Admin")
	require.NoError(t, err)

	assert.True(t, out.ReportCreated)
	income, ok := reports.get(5, model.ReportIncome)
	require.True(t, ok)
	assert.Equal(t, "810000", income.Amount.String())

	entries := activity.all()
	require.Len(t, entries, 1)
	assert.Equal(t, model.ReferenceInvoice, entries[0].ReferenceType)
	assert.Equal(t, uint64(5), entries[0].ReferenceID)
	assert.Equal(t, "Reservation ID: #TK-001 has been paid", entries[0].Description)
	assert.Equal(t, "Finance Admin", entries[0].Actor)

	require.Len(t, events.events, 1)
	assert.Equal(t, "Invoice", events.events[0].ReferenceType)
}

func TestOnInvoiceUpdatedWithoutTransition(t *testing.T) {
	cases := []struct {
		name  string
		prior model.InvoiceStatus
		next  model.InvoiceStatus
	}{
		{"paid to paid", model.InvoicePaid, model.InvoicePaid},
		{"unpaid to unpaid", model.InvoiceUnpaid, model.InvoiceUnpaid},
		{"paid to unpaid", model.InvoicePaid, model.InvoiceUnpaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, reports, activity, _ := newDeriver()
			out, err := d.OnInvoiceUpdated(context.Background(), tc.prior, sampleDetail(tc.next), "Finance Admin")
			require.NoError(t, err)
			assert.Nil(t, out.Report)
			assert.Zero(t, reports.count())
			assert.Empty(t, activity.all())
		})
	}
}

func TestOnInvoiceUpdatedKeepsExistingIncome(t *testing.T) {
	d, reports, activity, _ := newDeriver()
	_, err := reports.CreateOnce(context.Background(), &model.Report{InvoiceID: 5, Type: model.ReportIncome, Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)

	out, err := d.OnInvoiceUpdated(context.Background(), model.InvoiceUnpaid, sampleDetail(model.InvoicePaid), "Finance Admin")
	require.NoError(t, err)

	assert.False(t, out.ReportCreated)
	income, _ := reports.get(5, model.ReportIncome)
	assert.Equal(t, "1", income.Amount.String())
	assert.Len(t, activity.all(), 1)
}

func TestOnInvoiceUpdatedLogsEvenWhenReportFails(t *testing.T) {
	d, reports, activity, _ := newDeriver()
	reports.err = errors.New("deadlock")

	_, err := d.OnInvoiceUpdated(context.Background(), model.InvoiceUnpaid, sampleDetail(model.InvoicePaid), "Finance Admin")

	assert.ErrorContains(t, err, "deadlock")
	assert.Len(t, activity.all(), 1)
}

func TestOnInvoiceUpdatedIgnoresPublishFailure(t *testing.T) {
	d, _, activity, events := newDeriver()
	events.err = errors.New("broker down")

	_, err := d.OnInvoiceUpdated(context.Background(), model.InvoiceUnpaid, sampleDetail(model.InvoicePaid), "Finance Admin")

	require.NoError(t, err)
	assert.Len(t, activity.all(), 1)
}

func TestOnInvoiceUpdatedTicketFallback(t *testing.T) {
	d, _, activity, _ := newDeriver()
	detail := model.NewInvoiceDetail(model.Invoice{ID: 42, Status: model.InvoicePaid}, nil)

	_, err := d.OnInvoiceUpdated(context.Background(), model.InvoiceUnpaid, detail, "Finance Admin")
	require.NoError(t, err)

	entries := activity.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "Reservation ID: #42 has been paid", entries[0].Description)
}

func TestConcurrentDerivationsCreateOneReport(t *testing.T) {
	d, reports, _, _ := newDeriver()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.EnsureStatusReport(context.Background(), sampleDetail(model.InvoicePaid))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, reports.count())
}
