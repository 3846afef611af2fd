package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/repository"
)

type fakeReservations struct {
	rows   map[uint64]model.Reservation
	nextID uint64
	err    error
}

func (f *fakeReservations) Create(_ context.Context, res *model.Reservation) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	res.ID = f.nextID
	res.Recalculate()
	f.rows[res.ID] = *res
	return nil
}

func (f *fakeReservations) GetByID(_ context.Context, id uint64) (model.Reservation, error) {
	res, ok := f.rows[id]
	if !ok {
		return model.Reservation{}, repository.ErrReservationNotFound
	}
	return res, nil
}

func (f *fakeReservations) Update(_ context.Context, res *model.Reservation) error {
	f.rows[res.ID] = *res
	return nil
}

func (f *fakeReservations) Delete(_ context.Context, id uint64) error {
	res, ok := f.rows[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	if res.Billed() {
		return repository.ErrReservationBilled
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeReservations) Search(context.Context, repository.ReservationQuery) ([]model.Reservation, int64, error) {
	out := []model.Reservation{}
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func newReservationFixture() (*ReservationService, *fakeReservations, *fakeActivity, *fakePublisher) {
	store := &fakeReservations{rows: map[uint64]model.Reservation{}}
	activity, events := &fakeActivity{}, &fakePublisher{}
	return NewReservationService(store, activity, events, zerolog.Nop()), store, activity, events
}

func TestReservationServiceCreateLogsActivity(t *testing.T) {
	svc, _, activity, events := newReservationFixture()
	res := &model.Reservation{TicketID: "TK-001", TicketPrice: decimal.NewFromInt(500000), RoomPrice: decimal.NewFromInt(300000)}

	require.NoError(t, svc.Create(context.Background(), res, "Travel Admin"))

	assert.Equal(t, "800000", res.TotalPrice.String())
	entries := activity.all()
	require.Len(t, entries, 1)
	assert.Equal(t, model.ReferenceReservation, entries[0].ReferenceType)
	assert.Equal(t, res.ID, entries[0].ReferenceID)
	assert.Equal(t, "Reservation ID: #TK-001 successfully created", entries[0].Description)
	assert.Equal(t, "Travel Admin", entries[0].Actor)
	assert.Len(t, events.events, 1)
}

func TestReservationServiceCreateSurvivesLogFailure(t *testing.T) {
	svc, store, activity, events := newReservationFixture()
	activity.err = errors.New("activity table gone")

	require.NoError(t, svc.Create(context.Background(), &model.Reservation{TicketID: "TK-002"}, "Travel Admin"))
	assert.Len(t, store.rows, 1)
	assert.Empty(t, events.events)
}

func TestReservationServiceCreateDuplicate(t *testing.T) {
	svc, store, activity, _ := newReservationFixture()
	store.err = repository.ErrTicketExists

	err := svc.Create(context.Background(), &model.Reservation{TicketID: "TK-001"}, "Travel Admin")
	assert.ErrorIs(t, err, repository.ErrTicketExists)
	assert.Empty(t, activity.all())
}

func TestReservationServiceUpdateRecomputesTotal(t *testing.T) {
	svc, store, _, _ := newReservationFixture()
	store.rows[4] = model.Reservation{ID: 4, Name: "Siti", TicketPrice: decimal.NewFromInt(100), RoomPrice: decimal.NewFromInt(50)}

	room := decimal.NewFromInt(250)
	name := "Siti Aminah"
	res, err := svc.Update(context.Background(), 4, model.ReservationPatch{RoomPrice: &room, Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "350", res.TotalPrice.String())
	assert.Equal(t, "Siti Aminah", store.rows[4].Name)
}

func TestReservationServiceDeleteBilled(t *testing.T) {
	svc, store, _, _ := newReservationFixture()
	invoice := uint64(9)
	store.rows[4] = model.Reservation{ID: 4, InvoiceID: &invoice}

	assert.ErrorIs(t, svc.Delete(context.Background(), 4), repository.ErrReservationBilled)
	assert.ErrorIs(t, svc.Delete(context.Background(), 5), repository.ErrReservationNotFound)
}
