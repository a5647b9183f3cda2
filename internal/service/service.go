// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/studio-booking/internal/events"
	"github.com/Shivanand-hulikatti/studio-booking/internal/logger"
	"github.com/Shivanand-hulikatti/studio-booking/internal/model"
	"github.com/Shivanand-hulikatti/studio-booking/internal/repository"
	"github.com/Shivanand-hulikatti/studio-booking/internal/timezone"
)

// ClassStore persists classes. Implemented by repository.ClassRepository.
type ClassStore interface {
	Create(ctx context.Context, c model.NewClass) (*model.Class, error)
	List(ctx context.Context) ([]model.Class, error)
	GetByID(ctx context.Context, id int64) (*model.Class, error)
}

// BookingStore persists bookings. Implemented by repository.BookingRepository.
type BookingStore interface {
	Book(ctx context.Context, classID int64, clientName, clientEmail string) (*model.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]model.Booking, error)
	ListByClass(ctx context.Context, classID int64) ([]model.Booking, error)
}

// StudioService orchestrates class and booking operations.
type StudioService struct {
	classes   ClassStore
	bookings  BookingStore
	tz        *timezone.Converter
	validator *RequestValidator
	publisher events.Publisher
	log       *logger.Logger

	publishTimeout time.Duration
}

// DefaultPublishTimeout bounds how long a booking response waits on the
// event publisher.
const DefaultPublishTimeout = 2 * time.Second

// NewStudioService constructs a StudioService. A nil publisher disables
// booking events.
func NewStudioService(
	classes ClassStore,
	bookings BookingStore,
	tz *timezone.Converter,
	publisher events.Publisher,
	log *logger.Logger,
) *StudioService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if tz == nil {
		tz = timezone.NewConverter(nil)
	}
	return &StudioService{
		classes:   classes,
		bookings:  bookings,
		tz:        tz,
		validator: NewRequestValidator(),
		publisher: publisher,
		log:       log,

		publishTimeout: DefaultPublishTimeout,
	}
}

// WithPublishTimeout overrides DefaultPublishTimeout. Non-positive values
// are ignored.
func (s *StudioService) WithPublishTimeout(d time.Duration) *StudioService {
	if d > 0 {
		s.publishTimeout = d
	}
	return s
}

// CreateClass validates the request, normalises the start time to UTC and
// stores the class.
func (s *StudioService) CreateClass(ctx context.Context, req model.CreateClassRequest) (*model.Class, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Instructor = strings.TrimSpace(req.Instructor)
	if err := s.validator.ValidateClass(&req); err != nil {
		s.log.Warn("class rejected", "error", err)
		return nil, err
	}

	class, err := s.classes.Create(ctx, model.NewClass{
		Name:           req.Name,
		StartTime:      s.tz.ToCanonical(req.StartTime),
		Instructor:     req.Instructor,
		AvailableSlots: *req.AvailableSlots,
	})
	if err != nil {
		s.log.Error("create class failed", "name", req.Name, "error", err)
		return nil, fmt.Errorf("create class: %w", err)
	}

	s.log.Info("class created",
		"class_id", class.ID,
		"name", class.Name,
		"date_time", class.StartTime,
		"instructor", class.Instructor,
	)
	return class, nil
}

// ListClasses returns all classes ordered by start time. A non-empty zone
// renders start times in that zone; an unknown zone fails before the store
// is queried.
func (s *StudioService) ListClasses(ctx context.Context, zone string) ([]model.Class, error) {
	loc, err := s.resolveZone(zone)
	if err != nil {
		return nil, err
	}

	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	for i := range classes {
		classes[i].StartTime = timezone.In(classes[i].StartTime, loc)
	}
	return classes, nil
}

// GetClass returns one class, optionally rendered in zone.
func (s *StudioService) GetClass(ctx context.Context, id int64, zone string) (*model.Class, error) {
	loc, err := s.resolveZone(zone)
	if err != nil {
		return nil, err
	}

	class, err := s.classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	class.StartTime = timezone.In(class.StartTime, loc)
	return class, nil
}

func (s *StudioService) resolveZone(zone string) (*time.Location, error) {
	if zone == "" {
		return timezone.Canonical, nil
	}
	loc, err := timezone.Lookup(zone)
	if err != nil {
		s.log.Warn("unknown timezone requested", "tz", zone)
		return nil, err
	}
	return loc, nil
}

// Book validates the request and delegates the locked decrement-and-insert
// to the repository. Domain errors are returned unwrapped so handlers can
// match them.
func (s *StudioService) Book(ctx context.Context, req model.BookRequest) (*model.Booking, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	if err := s.validator.ValidateBooking(&req); err != nil {
		s.log.Warn("booking rejected", "error", err)
		return nil, err
	}
	classID := *req.ClassID

	booking, err := s.bookings.Book(ctx, classID, req.ClientName, req.ClientEmail)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.log.Warn("booking failed: class not found", "class_id", classID)
			return nil, repository.ErrNotFound
		case errors.Is(err, repository.ErrCapacityExceeded):
			s.log.Warn("booking failed: no slots available", "class_id", classID)
			return nil, repository.ErrCapacityExceeded
		}
		s.log.Error("booking failed", "class_id", classID, "error", err)
		return nil, fmt.Errorf("book class: %w", err)
	}

	s.log.Info("class booked",
		"class_id", booking.ClassID,
		"booking_id", booking.ID,
		"reference", booking.Reference,
		"client_name", booking.ClientName,
		"client_email", booking.ClientEmail,
	)

	s.publishBooking(ctx, *booking)
	return booking, nil
}

// publishBooking emits booking.created for an already committed booking.
// It is detached from the caller's cancellation and bounded by
// publishTimeout so a slow broker cannot hold the response back.
func (s *StudioService) publishBooking(ctx context.Context, b model.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.BookingCreated(ctx, b); err != nil {
		s.log.Warn("publish booking event failed", "booking_id", b.ID, "error", err)
	}
}

// BookingsFor returns all bookings made with exactly this email. No match,
// the empty string included, yields an empty result.
func (s *StudioService) BookingsFor(ctx context.Context, email string) ([]model.Booking, error) {
	bookings, err := s.bookings.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list bookings by email: %w", err)
	}
	return bookings, nil
}

// ListClassBookings returns the bookings of an existing class.
func (s *StudioService) ListClassBookings(ctx context.Context, classID int64) ([]model.Booking, error) {
	if _, err := s.classes.GetByID(ctx, classID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	bookings, err := s.bookings.ListByClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list class bookings: %w", err)
	}
	return bookings, nil
}
