// Package reminders nudges stalled requests. A cron-scheduled sweep finds
// requests sitting on hold or awaiting FINRA documents past a threshold,
// emits reminder events, and pushes notifications onto a Redis stream for
// downstream consumers.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/counselops/matterflow/pkg/eventbus"
	"github.com/counselops/matterflow/pkg/events"
	"github.com/counselops/matterflow/pkg/models"
	"github.com/counselops/matterflow/pkg/persistence"
)

const (
	// DefaultStream is the Redis stream reminder notifications land on.
	DefaultStream = "matterflow.reminders"

	defaultSchedule   = "0 * * * *"
	defaultStaleAfter = 72 * time.Hour

	sweepPageSize = 100
)

// Config controls the sweep schedule and thresholds.
type Config struct {
	// Schedule is a standard cron expression. Hourly when empty.
	Schedule string

	// StaleAfter is how long a request may sit untouched before a reminder.
	StaleAfter time.Duration

	// RedisAddr enables stream notifications when set. Reminder events are
	// still published on the event bus without it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Stream        string
}

func (c *Config) applyDefaults() {
	if c.Schedule == "" {
		c.Schedule = defaultSchedule
	}

	if c.StaleAfter <= 0 {
		c.StaleAfter = defaultStaleAfter
	}

	if c.Stream == "" {
		c.Stream = DefaultStream
	}
}

// Sweeper periodically scans for stalled requests.
type Sweeper struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	config      Config

	cron   *cron.Cron
	client redis.UniversalClient
	now    func() time.Time
}

// NewSweeper creates a sweeper. The publisher may be nil when only the Redis
// stream is wanted.
func NewSweeper(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
	config Config,
) (*Sweeper, error) {
	config.applyDefaults()

	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid cron expression '%s': %w", config.Schedule, err)
	}

	return &Sweeper{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger.With("module", "reminder_sweeper"),
		config:      config,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start connects to Redis when configured and begins the scheduled sweep.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.config.RedisAddr != "" {
		if err := s.connectRedis(ctx); err != nil {
			return err
		}
	}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		count, err := s.Sweep(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "Reminder sweep failed", "error", err)

			return
		}

		s.logger.InfoContext(ctx, "Reminder sweep finished", "reminders", count)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Reminder sweeper started",
		"schedule", s.config.Schedule, "stale_after", s.config.StaleAfter)

	return nil
}

// Stop halts the schedule and closes the Redis connection.
func (s *Sweeper) Stop() error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	if s.client != nil {
		return s.client.Close()
	}

	return nil
}

func (s *Sweeper) connectRedis(ctx context.Context) error {
	s.client = redis.NewClient(&redis.Options{
		Addr:     s.config.RedisAddr,
		Password: s.config.RedisPassword,
		DB:       s.config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s.logger.InfoContext(ctx, "Connected to Redis", "addr", s.config.RedisAddr)

	return nil
}

// Sweep runs one pass and returns how many reminders went out.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.config.StaleAfter)
	count := 0

	for _, status := range []models.ReviewStatus{models.StatusOnHold, models.StatusAwaitingFINRADocuments} {
		stalled, err := s.stalledRequests(ctx, status, cutoff)
		if err != nil {
			return count, err
		}

		for _, request := range stalled {
			if err := s.remind(ctx, request); err != nil {
				s.logger.ErrorContext(ctx, "Failed to send reminder",
					"request_id", request.ID, "error", err)

				continue
			}

			count++
		}
	}

	return count, nil
}

func (s *Sweeper) stalledRequests(
	ctx context.Context,
	status models.ReviewStatus,
	cutoff time.Time,
) ([]*models.LegalRequest, error) {
	var stalled []*models.LegalRequest

	offset := 0

	for {
		result, err := s.persistence.RequestRepository().List(ctx, persistence.ListRequestsOptions{
			Limit:     sweepPageSize,
			Offset:    offset,
			Status:    &status,
			SortBy:    "updated_at",
			SortOrder: "asc",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s requests: %w", status, err)
		}

		for _, request := range result.Requests {
			if request.UpdatedAt.Before(cutoff) {
				stalled = append(stalled, request)
			}
		}

		if !result.HasNextPage {
			return stalled, nil
		}

		offset += sweepPageSize
	}
}

func (s *Sweeper) remind(ctx context.Context, request *models.LegalRequest) error {
	staleFor := s.now().Sub(request.UpdatedAt).Truncate(time.Minute)

	event := events.ReviewReminderDue{
		BaseEvent: events.NewBaseEvent(events.ReviewReminderDueEvent, request.ID),
		Status:    request.Status,
		StaleFor:  staleFor.String(),
		Submitter: request.Submitter,
	}

	var errs []error

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, request.ID, event); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}

	if s.client != nil {
		err := s.client.XAdd(ctx, &redis.XAddArgs{
			Stream: s.config.Stream,
			Values: map[string]any{
				"request_id": request.ID,
				"status":     string(request.Status),
				"stale_for":  staleFor.String(),
				"submitter":  request.Submitter,
				"title":      request.Title,
			},
		}).Err()
		if err != nil {
			errs = append(errs, fmt.Errorf("redis stream: %w", err))
		}
	}

	return errors.Join(errs...)
}
