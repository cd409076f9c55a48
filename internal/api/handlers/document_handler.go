package handlers

import (
	"net/http"
	"time"

	"github.com/chainfly/tenderapi/internal/services"
	"github.com/chainfly/tenderapi/internal/utils"
	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	docs    services.DocumentService
	history services.HistoryService
}

func NewDocumentHandler(docs services.DocumentService, history services.HistoryService) *DocumentHandler {
	return &DocumentHandler{docs: docs, history: history}
}

// Upload accepts multipart form fields tender_id, document_type, file and
// the optional store_in_gridfs flag.
func (h *DocumentHandler) Upload(c *gin.Context) {
	const op = "DocumentHandler.Upload"

	tenderID := c.PostForm("tender_id")
	documentType := c.PostForm("document_type")
	if tenderID == "" || documentType == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "tender_id and document_type are required", nil))
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer file.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	result, err := h.docs.Upload(c.Request.Context(), services.UploadInput{
		TenderID:     tenderID,
		DocumentType: documentType,
		Filename:     fh.Filename,
		ContentType:  contentType,
		Content:      file,
		PreferGridFS: c.PostForm("store_in_gridfs") == "true",
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *DocumentHandler) List(c *gin.Context) {
	files, err := h.docs.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": files})
}

func (h *DocumentHandler) ListByTender(c *gin.Context) {
	files, err := h.docs.ListByTender(c.Request.Context(), c.Param("tender_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": files})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	record, err := h.docs.Get(c.Request.Context(), c.Param("file_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Content streams the stored bytes back with the original content type.
func (h *DocumentHandler) Content(c *gin.Context) {
	data, contentType, err := h.docs.Content(c.Request.Context(), c.Param("file_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.docs.Delete(c.Request.Context(), c.Param("file_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "File deleted successfully"})
}

type AddDownloadHistoryRequest struct {
	ZipName      string           `json:"zip_name" binding:"required"`
	DownloadDate time.Time        `json:"download_date" binding:"required"`
	Documents    []map[string]any `json:"documents"`
}

func (h *DocumentHandler) AddDownloadHistory(c *gin.Context) {
	var req AddDownloadHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler.AddDownloadHistory", "invalid request body", err))
		return
	}

	if err := h.history.AddDownloadHistory(c.Request.Context(),
		req.ZipName, req.DownloadDate, req.Documents); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Download history added"})
}

func (h *DocumentHandler) ListDownloadHistory(c *gin.Context) {
	out, err := h.history.ListDownloadHistory(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloads": out})
}

func (h *DocumentHandler) ClearDownloadHistory(c *gin.Context) {
	if err := h.history.ClearDownloadHistory(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Download history cleared"})
}
