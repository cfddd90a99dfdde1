package interfaces

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"job-board/domain"
)

func (h *HTTPHandler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	posts, err := h.blog.ListPosts(c.Request.Context(), actorFrom(c), c.Query("tag"), page, pageSize)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *HTTPHandler) CreatePost(c *gin.Context) {
	var in domain.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.blog.CreatePost(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *HTTPHandler) GetPost(c *gin.Context) {
	p, err := h.blog.GetPost(c.Request.Context(), actorFrom(c), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *HTTPHandler) UpdatePost(c *gin.Context) {
	var in domain.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.blog.UpdatePost(c.Request.Context(), actorFrom(c), c.Param("slug"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *HTTPHandler) DeletePost(c *gin.Context) {
	if err := h.blog.DeletePost(c.Request.Context(), actorFrom(c), c.Param("slug")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ListComments(c *gin.Context) {
	comments, err := h.blog.ListComments(c.Request.Context(), actorFrom(c), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	c.JSON(http.StatusOK, gin.H{"items": comments})
}

func (h *HTTPHandler) AddComment(c *gin.Context) {
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	comment, err := h.blog.AddComment(c.Request.Context(), actorFrom(c), c.Param("slug"), req.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *HTTPHandler) DeleteComment(c *gin.Context) {
	if err := h.blog.DeleteComment(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
