package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainfly/tenderapi/internal/cache"
	"github.com/chainfly/tenderapi/internal/models"
	"github.com/chainfly/tenderapi/internal/providers/mailer"
	pgrepo "github.com/chainfly/tenderapi/internal/repositories/postgres"
	"github.com/chainfly/tenderapi/internal/scheduler"
	"github.com/chainfly/tenderapi/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	emailSubject      = "Chainfly Tender Reminder"
	emailBodyTemplate = "This is a reminder for tender %s (%s). Due date: %s."

	remindersCacheKey = "reminders:list"
	listCacheTTL      = 30 * time.Second
)

// Production offsets are days before the due date; test offsets are
// minutes from now, an intentional acceleration for manual testing.
var (
	productionOffsetsDays = []int{15, 6, 1}
	testOffsetsMinutes    = []int{1, 2, 3}
)

type ReminderSummary struct {
	ID           string `json:"id"`
	TenderID     string `json:"tender_id"`
	ReminderType string `json:"reminder_type"`
	DueDate      string `json:"due_date"`
	Email        string `json:"email"`
	Status       string `json:"status"`
}

type ReminderService interface {
	// Create persists the reminder and schedules its notification jobs.
	// Returns the stored row and how many jobs were actually registered;
	// past-due offsets are silently dropped.
	Create(ctx context.Context, tenderID, reminderType string, dueDate time.Time, email string, testMode bool) (*models.Reminder, int, error)
	List(ctx context.Context) ([]ReminderSummary, error)
	// Delete removes the stored row. Already-registered jobs are NOT
	// cancelled and will still fire.
	Delete(ctx context.Context, id uint) error
}

type reminderService struct {
	repo     pgrepo.ReminderRepository
	registry scheduler.Registry
	notifier mailer.Notifier
	clock    scheduler.Clock
	cache    cache.Cache
	log      *logrus.Logger
}

func NewReminderService(repo pgrepo.ReminderRepository, registry scheduler.Registry, notifier mailer.Notifier, clock scheduler.Clock, c cache.Cache, log *logrus.Logger) ReminderService {
	if clock == nil {
		clock = scheduler.RealClock()
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &reminderService{
		repo:     repo,
		registry: registry,
		notifier: notifier,
		clock:    clock,
		cache:    c,
		log:      log,
	}
}

func (s *reminderService) Create(ctx context.Context, tenderID, reminderType string, dueDate time.Time, email string, testMode bool) (*models.Reminder, int, error) {
	const op = "ReminderService.Create"

	if tenderID == "" || reminderType == "" || email == "" {
		return nil, 0, utils.E(utils.CodeInvalidArgument, op, "tender_id, reminder_type, and email are required", nil)
	}
	if dueDate.IsZero() {
		return nil, 0, utils.E(utils.CodeInvalidArgument, op, "due_date is required", nil)
	}

	row := &models.Reminder{
		TenderID:     tenderID,
		ReminderType: reminderType,
		DueDate:      dueDate.UTC(),
		Email:        email,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, 0, utils.E(utils.CodeInternal, op, "failed to persist reminder", err)
	}

	registered := s.schedule(row, testMode)
	_ = s.cache.Del(ctx, remindersCacheKey)
	return row, registered, nil
}

// schedule computes candidate fire times per mode and registers a one-shot
// job for each candidate still in the future. Notification failures at
// fire time are logged and swallowed: the originating request has long
// completed, and delivery is at-most-one-attempt.
func (s *reminderService) schedule(rem *models.Reminder, testMode bool) int {
	now := s.clock.Now()
	body := fmt.Sprintf(emailBodyTemplate,
		rem.TenderID, rem.ReminderType, rem.DueDate.Format("2006-01-02 15:04"))

	var fireTimes []time.Time
	if testMode {
		for _, m := range testOffsetsMinutes {
			fireTimes = append(fireTimes, now.Add(time.Duration(m)*time.Minute))
		}
	} else {
		for _, d := range productionOffsetsDays {
			fireTimes = append(fireTimes, rem.DueDate.Add(-time.Duration(d)*24*time.Hour))
		}
	}

	registered := 0
	for _, ft := range fireTimes {
		if !ft.After(now) {
			continue
		}
		to := rem.Email
		s.registry.RegisterAt(ft, func() {
			if err := s.notifier.Notify(to, emailSubject, body); err != nil {
				s.log.WithError(err).WithFields(logrus.Fields{
					"reminder_id": rem.ID,
					"tender_id":   rem.TenderID,
					"recipient":   to,
				}).Error("reminder email failed")
			}
		})
		registered++
	}

	s.log.WithFields(logrus.Fields{
		"reminder_id": rem.ID,
		"tender_id":   rem.TenderID,
		"due_date":    rem.DueDate,
		"test_mode":   testMode,
		"jobs":        registered,
	}).Info("reminder scheduled")
	return registered
}

func (s *reminderService) List(ctx context.Context) ([]ReminderSummary, error) {
	const op = "ReminderService.List"

	var cached []ReminderSummary
	if hit, _ := s.cache.GetJSON(ctx, remindersCacheKey, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to list reminders", err)
	}

	out := make([]ReminderSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, ReminderSummary{
			ID:           fmt.Sprintf("%d", r.ID),
			TenderID:     r.TenderID,
			ReminderType: r.ReminderType,
			DueDate:      r.DueDate.Format(time.RFC3339),
			Email:        r.Email,
			Status:       "pending",
		})
	}

	_ = s.cache.SetJSON(ctx, remindersCacheKey, out, listCacheTTL)
	return out, nil
}

func (s *reminderService) Delete(ctx context.Context, id uint) error {
	const op = "ReminderService.Delete"

	err := s.repo.Delete(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeNotFound, op, "reminder not found", err)
	}
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete reminder", err)
	}
	_ = s.cache.Del(ctx, remindersCacheKey)
	return nil
}
