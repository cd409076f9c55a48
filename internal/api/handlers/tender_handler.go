package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type TenderHandler struct{}

func NewTenderHandler() *TenderHandler {
	return &TenderHandler{}
}

// Search is a pass-through placeholder; tender search lives upstream.
func (h *TenderHandler) Search(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Tenders search working!"})
}
