// Package repository implements all database queries for the studio booking
// system. It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/studio-booking/internal/database"
	"github.com/Shivanand-hulikatti/studio-booking/internal/model"
	"github.com/Shivanand-hulikatti/studio-booking/internal/timezone"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a requested class does not exist.
var ErrNotFound = errors.New("class not found")

// ErrCapacityExceeded is returned when a class has no remaining slots.
var ErrCapacityExceeded = errors.New("no slots available")

const classColumns = `id, name, date_time, instructor, available_slots`

// ClassRepository handles persistence for classes.
type ClassRepository struct {
	db database.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db database.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create inserts a class and returns it with its assigned id. StartTime must
// already be canonical.
func (r *ClassRepository) Create(ctx context.Context, c model.NewClass) (*model.Class, error) {
	class := &model.Class{
		Name:           c.Name,
		StartTime:      c.StartTime.In(timezone.Canonical),
		Instructor:     c.Instructor,
		AvailableSlots: c.AvailableSlots,
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO fitness_classes (name, date_time, instructor, available_slots)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		class.Name, class.StartTime, class.Instructor, class.AvailableSlots,
	).Scan(&class.ID)
	if err != nil {
		return nil, fmt.Errorf("insert class: %w", err)
	}
	return class, nil
}

// List returns all classes ordered by start time ascending.
func (r *ClassRepository) List(ctx context.Context) ([]model.Class, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+classColumns+`
		 FROM fitness_classes
		 ORDER BY date_time ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var classes []model.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

// GetByID returns a single class or ErrNotFound.
func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*model.Class, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+classColumns+` FROM fitness_classes WHERE id = $1`,
		id,
	)
	c, err := scanClass(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanClass(row pgx.Row) (*model.Class, error) {
	var c model.Class
	if err := row.Scan(&c.ID, &c.Name, &c.StartTime, &c.Instructor, &c.AvailableSlots); err != nil {
		return nil, fmt.Errorf("scan class: %w", err)
	}
	c.StartTime = timezone.FromStore(c.StartTime)
	return &c, nil
}

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db  database.DB
	now func() time.Time
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db database.DB) *BookingRepository {
	return &BookingRepository{db: db, now: time.Now}
}

// Book reserves one slot in a class and records the booking, atomically.
//
// The class row is read with SELECT ... FOR UPDATE, so concurrent bookings
// against the same class queue behind the row lock and each sees the count
// left by the previous commit. Two requests racing for the last slot cannot
// both pass the capacity check. The CHECK constraint on available_slots
// backs this up at the schema level.
func (r *BookingRepository) Book(ctx context.Context, classID int64, clientName, clientEmail string) (*model.Booking, error) {
	booking := &model.Booking{
		Reference:   uuid.New(),
		ClassID:     classID,
		ClientName:  clientName,
		ClientEmail: clientEmail,
		CreatedAt:   r.now().UTC().Truncate(time.Microsecond),
	}

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		class, err := scanClass(tx.QueryRow(ctx,
			`SELECT `+classColumns+`
			 FROM fitness_classes
			 WHERE id = $1
			 FOR UPDATE`,
			classID,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock class row: %w", err)
		}

		if !class.HasCapacity() {
			return ErrCapacityExceeded
		}

		if _, err := tx.Exec(ctx,
			`UPDATE fitness_classes SET available_slots = available_slots - 1 WHERE id = $1`,
			classID,
		); err != nil {
			return fmt.Errorf("decrement available_slots: %w", err)
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO bookings (reference, class_id, client_name, client_email, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			booking.Reference, booking.ClassID, booking.ClientName, booking.ClientEmail, booking.CreatedAt,
		).Scan(&booking.ID)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ListByEmail returns every booking whose client_email equals email exactly.
func (r *BookingRepository) ListByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT id, reference, class_id, client_name, client_email, created_at
		 FROM bookings
		 WHERE client_email = $1`,
		email,
	)
}

// ListByClass returns all bookings for a class, oldest first.
func (r *BookingRepository) ListByClass(ctx context.Context, classID int64) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT id, reference, class_id, client_name, client_email, created_at
		 FROM bookings
		 WHERE class_id = $1
		 ORDER BY created_at ASC, id ASC`,
		classID,
	)
}

func (r *BookingRepository) list(ctx context.Context, query string, arg any) ([]model.Booking, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.Reference, &b.ClassID, &b.ClientName, &b.ClientEmail, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
