package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/chainfly/tenderapi/internal/services"
	"github.com/chainfly/tenderapi/internal/utils"
	"github.com/gin-gonic/gin"
)

type ReminderHandler struct {
	reminders services.ReminderService
	history   services.HistoryService
}

func NewReminderHandler(reminders services.ReminderService, history services.HistoryService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, history: history}
}

type SetReminderRequest struct {
	TenderID     string    `json:"tender_id" binding:"required"`
	ReminderType string    `json:"reminder_type" binding:"required"`
	DueDate      time.Time `json:"due_date" binding:"required"`
	Email        string    `json:"email" binding:"required"`
}

type SetReminderResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	Email          string `json:"email"`
	TestMode       bool   `json:"test_mode"`
	JobsRegistered int    `json:"jobs_registered"`
}

// Set persists a reminder and schedules its notification emails.
// ?test=true switches to the accelerated minute offsets.
func (h *ReminderHandler) Set(c *gin.Context) {
	testMode := c.Query("test") == "true"

	var req SetReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ReminderHandler.Set", "invalid request body: due_date must be RFC3339", err))
		return
	}

	row, jobs, err := h.reminders.Create(c.Request.Context(),
		req.TenderID, req.ReminderType, req.DueDate, req.Email, testMode)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SetReminderResponse{
		Status:         "success",
		Message:        fmt.Sprintf("Reminder set for %s", row.DueDate.Format(time.RFC3339)),
		Email:          row.Email,
		TestMode:       testMode,
		JobsRegistered: jobs,
	})
}

func (h *ReminderHandler) List(c *gin.Context) {
	out, err := h.reminders.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": out})
}

func (h *ReminderHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("reminder_id"), 10, 64)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ReminderHandler.Delete", "reminder_id must be an integer", err))
		return
	}

	if err := h.reminders.Delete(c.Request.Context(), uint(id)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Reminder deleted successfully"})
}

type AddReminderHistoryRequest struct {
	ReminderID string         `json:"reminder_id" binding:"required"`
	Action     string         `json:"action" binding:"required"`
	Timestamp  time.Time      `json:"timestamp" binding:"required"`
	Details    map[string]any `json:"details"`
}

func (h *ReminderHandler) AddHistory(c *gin.Context) {
	var req AddReminderHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ReminderHandler.AddHistory", "invalid request body", err))
		return
	}

	if err := h.history.AddReminderHistory(c.Request.Context(),
		req.ReminderID, req.Action, req.Timestamp, req.Details); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Reminder history added"})
}

func (h *ReminderHandler) ListHistory(c *gin.Context) {
	out, err := h.history.ListReminderHistory(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}

func (h *ReminderHandler) ClearHistory(c *gin.Context) {
	if err := h.history.ClearReminderHistory(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Reminder history cleared"})
}
