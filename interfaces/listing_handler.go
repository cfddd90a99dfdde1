package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"job-board/domain"
)

type searchParams struct {
	domain.ListingFilter
	Sort     string `form:"sort"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

func (p searchParams) query() domain.ListingQuery {
	return domain.ListingQuery{
		Filter:   p.ListingFilter,
		Sort:     domain.SortOrder(p.Sort),
		Page:     p.Page,
		PageSize: p.PageSize,
	}
}

func bindSearch(c *gin.Context) (domain.ListingQuery, bool) {
	var p searchParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, "invalid query parameters")
		return domain.ListingQuery{}, false
	}
	return p.query(), true
}

// SearchListings returns public listings, promoted ones first.
func (h *HTTPHandler) SearchListings(c *gin.Context) {
	q, ok := bindSearch(c)
	if !ok {
		return
	}
	page, err := h.listings.Search(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *HTTPHandler) CreateListing(c *gin.Context) {
	var in domain.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	l, err := h.listings.Create(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *HTTPHandler) GetListing(c *gin.Context) {
	l, err := h.listings.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *HTTPHandler) UpdateListing(c *gin.Context) {
	var patch domain.ListingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	l, err := h.listings.Update(c.Request.Context(), actorFrom(c), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *HTTPHandler) DeleteListing(c *gin.Context) {
	if err := h.listings.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) SetListingStatus(c *gin.Context) {
	var req struct {
		Status domain.ListingStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	l, err := h.listings.SetStatus(c.Request.Context(), actorFrom(c), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *HTTPHandler) MyListings(c *gin.Context) {
	items, err := h.listings.ListByOwner(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if items == nil {
		items = []domain.JobListing{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *HTTPHandler) ListFavorites(c *gin.Context) {
	q, ok := bindSearch(c)
	if !ok {
		return
	}
	page, err := h.favorites.List(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *HTTPHandler) AddFavorite(c *gin.Context) {
	if err := h.favorites.Add(c.Request.Context(), actorFrom(c), c.Param("listingID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) RemoveFavorite(c *gin.Context) {
	if err := h.favorites.Remove(c.Request.Context(), actorFrom(c), c.Param("listingID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
