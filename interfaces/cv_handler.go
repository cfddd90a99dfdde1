package interfaces

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"job-board/domain"
	"job-board/infrastructure"
)

func (h *HTTPHandler) GetCV(c *gin.Context) {
	cv, err := h.cvs.Get(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cv)
}

func (h *HTTPHandler) SaveCV(c *gin.Context) {
	var cv domain.CV
	if err := c.ShouldBindJSON(&cv); err != nil {
		badRequest(c, err.Error())
		return
	}
	saved, err := h.cvs.Save(c.Request.Context(), actorFrom(c), cv)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// ImportCV reads the multipart field "file" (.pdf, .docx or .txt).
func (h *HTTPHandler) ImportCV(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if header.Size > infrastructure.MaxDocumentSize {
		badRequest(c, "file is larger than 5 MiB")
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, infrastructure.MaxDocumentSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}

	cv, err := h.cvs.Import(c.Request.Context(), actorFrom(c), header.Filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cv)
}

func (h *HTTPHandler) ExportCV(c *gin.Context) {
	pdf, err := h.cvs.ExportPDF(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="cv.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
