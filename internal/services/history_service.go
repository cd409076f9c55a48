package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/chainfly/tenderapi/internal/models"
	pgrepo "github.com/chainfly/tenderapi/internal/repositories/postgres"
	"github.com/chainfly/tenderapi/internal/utils"
	"gorm.io/datatypes"
)

type ReminderHistoryEntry struct {
	ID         string         `json:"id"`
	ReminderID string         `json:"reminder_id"`
	Action     string         `json:"action"`
	Timestamp  string         `json:"timestamp"`
	Details    map[string]any `json:"details"`
}

type DownloadHistoryEntry struct {
	ID           string           `json:"id"`
	ZipName      string           `json:"zipName"`
	DownloadDate string           `json:"downloadDate"`
	Documents    []map[string]any `json:"documents"`
}

type HistoryService interface {
	AddReminderHistory(ctx context.Context, reminderID, action string, ts time.Time, details map[string]any) error
	ListReminderHistory(ctx context.Context) ([]ReminderHistoryEntry, error)
	ClearReminderHistory(ctx context.Context) error

	AddDownloadHistory(ctx context.Context, zipName string, downloadDate time.Time, documents []map[string]any) error
	ListDownloadHistory(ctx context.Context) ([]DownloadHistoryEntry, error)
	ClearDownloadHistory(ctx context.Context) error
}

type historyService struct {
	reminders pgrepo.ReminderHistoryRepository
	downloads pgrepo.DownloadHistoryRepository
}

func NewHistoryService(reminders pgrepo.ReminderHistoryRepository, downloads pgrepo.DownloadHistoryRepository) HistoryService {
	return &historyService{reminders: reminders, downloads: downloads}
}

func formatID(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func (s *historyService) AddReminderHistory(ctx context.Context, reminderID, action string, ts time.Time, details map[string]any) error {
	const op = "HistoryService.AddReminderHistory"

	if reminderID == "" || action == "" {
		return utils.E(utils.CodeInvalidArgument, op, "reminder_id and action are required", nil)
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "details are not serializable", err)
	}

	row := &models.ReminderHistory{
		ReminderID: reminderID,
		Action:     action,
		Timestamp:  ts.UTC(),
		Details:    datatypes.JSON(payload),
	}
	if err := s.reminders.Insert(ctx, row); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to persist reminder history", err)
	}
	return nil
}

func (s *historyService) ListReminderHistory(ctx context.Context) ([]ReminderHistoryEntry, error) {
	const op = "HistoryService.ListReminderHistory"

	rows, err := s.reminders.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to list reminder history", err)
	}

	out := make([]ReminderHistoryEntry, 0, len(rows))
	for _, r := range rows {
		details := map[string]any{}
		// a corrupt blob degrades to an empty detail payload
		_ = json.Unmarshal(r.Details, &details)
		out = append(out, ReminderHistoryEntry{
			ID:         formatID(r.ID),
			ReminderID: r.ReminderID,
			Action:     r.Action,
			Timestamp:  r.Timestamp.Format(time.RFC3339),
			Details:    details,
		})
	}
	return out, nil
}

func (s *historyService) ClearReminderHistory(ctx context.Context) error {
	const op = "HistoryService.ClearReminderHistory"

	if err := s.reminders.Clear(ctx); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to clear reminder history", err)
	}
	return nil
}

func (s *historyService) AddDownloadHistory(ctx context.Context, zipName string, downloadDate time.Time, documents []map[string]any) error {
	const op = "HistoryService.AddDownloadHistory"

	if zipName == "" {
		return utils.E(utils.CodeInvalidArgument, op, "zip_name is required", nil)
	}

	payload, err := json.Marshal(documents)
	if err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "documents are not serializable", err)
	}

	row := &models.DownloadHistory{
		ZipName:      zipName,
		DownloadDate: downloadDate.UTC(),
		Documents:    datatypes.JSON(payload),
	}
	if err := s.downloads.Insert(ctx, row); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to persist download history", err)
	}
	return nil
}

func (s *historyService) ListDownloadHistory(ctx context.Context) ([]DownloadHistoryEntry, error) {
	const op = "HistoryService.ListDownloadHistory"

	rows, err := s.downloads.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to list download history", err)
	}

	out := make([]DownloadHistoryEntry, 0, len(rows))
	for _, r := range rows {
		docs := []map[string]any{}
		_ = json.Unmarshal(r.Documents, &docs)
		out = append(out, DownloadHistoryEntry{
			ID:           formatID(r.ID),
			ZipName:      r.ZipName,
			DownloadDate: r.DownloadDate.Format(time.RFC3339),
			Documents:    docs,
		})
	}
	return out, nil
}

func (s *historyService) ClearDownloadHistory(ctx context.Context) error {
	const op = "HistoryService.ClearDownloadHistory"

	if err := s.downloads.Clear(ctx); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to clear download history", err)
	}
	return nil
}
