package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type listingText struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *HTTPHandler) SuggestCategory(c *gin.Context) {
	var req listingText
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	category, err := h.assistant.SuggestCategory(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

func (h *HTTPHandler) OptimizeListing(c *gin.Context) {
	var req listingText
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	suggestion, err := h.assistant.OptimizeListing(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}
