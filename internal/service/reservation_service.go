package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/queue"
	"github.com/iliyamo/travel-backoffice/internal/repository"
)

// ReservationStore is the persistence ReservationService needs.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	Update(ctx context.Context, res *model.Reservation) error
	Delete(ctx context.Context, id uint64) error
	Search(ctx context.Context, q repository.ReservationQuery) ([]model.Reservation, int64, error)
}

// ReservationService handles reservation CRUD and records creation in the
// activity log.
type ReservationService struct {
	store    ReservationStore
	activity ActivityStore
	events   EventPublisher
	logger   zerolog.Logger
}

// NewReservationService wires the service.  A nil publisher disables events.
func NewReservationService(store ReservationStore, activity ActivityStore, events EventPublisher, logger zerolog.Logger) *ReservationService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &ReservationService{store: store, activity: activity, events: events, logger: logger}
}

// Create stores res and appends a creation entry attributed to actor.  The
// entry is best-effort: a failure is logged and the reservation is kept.
func (s *ReservationService) Create(ctx context.Context, res *model.Reservation, actor string) error {
	if err := s.store.Create(ctx, res); err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	entry := &model.ActivityLog{
		ReferenceID:   res.ID,
		ReferenceType: model.ReferenceReservation,
		Description:   fmt.Sprintf("Reservation ID: #%s successfully created", res.TicketID),
		Actor:         actor,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error().Err(err).Uint64("reservation_id", res.ID).Msg("reservation activity not saved")
		return nil
	}
	if err := s.events.PublishActivity(ctx, queue.NewActivityEvent(*entry)); err != nil {
		s.logger.Warn().Err(err).Uint64("activity_id", entry.ID).Msg("activity event not published")
	}
	return nil
}

// Get returns one reservation.
func (s *ReservationService) Get(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("get reservation %d: %w", id, err)
	}
	return res, nil
}

// Update applies a partial update and returns the stored reservation.
func (s *ReservationService) Update(ctx context.Context, id uint64, patch model.ReservationPatch) (model.Reservation, error) {
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("get reservation %d: %w", id, err)
	}
	patch.ApplyTo(&res)
	if err := s.store.Update(ctx, &res); err != nil {
		return model.Reservation{}, fmt.Errorf("update reservation %d: %w", id, err)
	}
	return res, nil
}

// Delete removes the reservation and its activity entries.
func (s *ReservationService) Delete(ctx context.Context, id uint64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}
	return nil
}

// Search lists reservations matching q and the total match count.
func (s *ReservationService) Search(ctx context.Context, q repository.ReservationQuery) ([]model.Reservation, int64, error) {
	list, total, err := s.store.Search(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("search reservations: %w", err)
	}
	return list, total, nil
}
