// Command seed creates the schema and inserts a few sample classes.
package main

import (
	"context"
	"time"
	_ "time/tzdata"

	"github.com/Shivanand-hulikatti/studio-booking/internal/config"
	"github.com/Shivanand-hulikatti/studio-booking/internal/database"
	"github.com/Shivanand-hulikatti/studio-booking/internal/logger"
	"github.com/Shivanand-hulikatti/studio-booking/internal/model"
	"github.com/Shivanand-hulikatti/studio-booking/internal/repository"
	"github.com/Shivanand-hulikatti/studio-booking/internal/service"
	"github.com/Shivanand-hulikatti/studio-booking/internal/timezone"
)

type sample struct {
	name       string
	offset     time.Duration
	instructor string
	slots      int
}

var samples = []sample{
	{name: "Yoga Flow", offset: 24 * time.Hour, instructor: "John Doe", slots: 20},
	{name: "Zumba", offset: 50 * time.Hour, instructor: "Jane Smith", slots: 15},
	{name: "HIIT", offset: 73 * time.Hour, instructor: "Mike Lee", slots: 10},
}

func main() {
	ctx := context.Background()
	log := logger.New(logger.Config{Format: logger.TEXT, Service: "studio-seed"})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", "error", err)
	}

	pool, err := database.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("database connect failed", "error", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("database migration failed", "error", err)
	}

	svc := service.NewStudioService(
		repository.NewClassRepository(pool),
		repository.NewBookingRepository(pool),
		timezone.NewConverter(cfg.StudioLocation),
		nil,
		log,
	)

	now := time.Now().In(cfg.StudioLocation).Truncate(time.Minute)
	for _, s := range samples {
		slots := s.slots
		if _, err := svc.CreateClass(ctx, model.CreateClassRequest{
			Name:           s.name,
			StartTime:      timezone.Zoned(now.Add(s.offset)),
			Instructor:     s.instructor,
			AvailableSlots: &slots,
		}); err != nil {
			log.Fatal("seed class failed", "name", s.name, "error", err)
		}
	}
	log.Info("seeded classes", "count", len(samples))
}
