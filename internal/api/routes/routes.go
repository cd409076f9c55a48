package routes

import (
	"github.com/chainfly/tenderapi/internal/api/handlers"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Reminder *handlers.ReminderHandler
	Document *handlers.DocumentHandler
	Tender   *handlers.TenderHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Welcome to Chainfly API!"})
	})
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	tenders := r.Group("/tenders")
	tenders.GET("/search", d.Tender.Search)

	reminders := r.Group("/reminders")
	reminders.POST("/set", d.Reminder.Set)
	reminders.GET("/list", d.Reminder.List)
	reminders.POST("/history", d.Reminder.AddHistory)
	reminders.GET("/history", d.Reminder.ListHistory)
	reminders.DELETE("/history", d.Reminder.ClearHistory)
	reminders.DELETE("/:reminder_id", d.Reminder.Delete)

	documents := r.Group("/documents")
	documents.POST("/upload", d.Document.Upload)
	documents.GET("/list", d.Document.List)
	documents.GET("/tender/:tender_id", d.Document.ListByTender)
	documents.POST("/download-history", d.Document.AddDownloadHistory)
	documents.GET("/download-history", d.Document.ListDownloadHistory)
	documents.DELETE("/download-history", d.Document.ClearDownloadHistory)
	documents.GET("/:file_id", d.Document.Get)
	documents.GET("/:file_id/content", d.Document.Content)
	documents.DELETE("/:file_id", d.Document.Delete)
}
