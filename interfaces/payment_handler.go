package interfaces

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"job-board/domain"
	"job-board/infrastructure"
)

func (h *HTTPHandler) PromotionPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.promotions.Plans()})
}

func (h *HTTPHandler) PromoteListing(c *gin.Context) {
	var req struct {
		Plan string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "plan is required")
		return
	}
	checkout, err := h.promotions.StartCheckout(c.Request.Context(), actorFrom(c), c.Param("id"), req.Plan, c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkout)
}

// PaymentCallback receives the gateway's form-encoded notification. The
// gateway keeps retrying until it reads a plain "OK".
func (h *HTTPHandler) PaymentCallback(c *gin.Context) {
	var cb domain.PaymentCallback
	if err := c.ShouldBind(&cb); err != nil || cb.OrderID == "" {
		c.String(http.StatusBadRequest, "invalid callback")
		return
	}

	status, err := h.promotions.HandleCallback(c.Request.Context(), cb)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		infrastructure.PaymentOutcomes.WithLabelValues("bad_hash").Inc()
		h.log.WithField("order_id", cb.OrderID).Warn("payment callback with invalid hash")
		c.String(http.StatusBadRequest, "invalid hash")
		return
	case errors.Is(err, domain.ErrNotFound):
		infrastructure.PaymentOutcomes.WithLabelValues("unknown_order").Inc()
		c.String(http.StatusNotFound, "unknown order")
		return
	case err != nil:
		h.log.WithError(err).WithField("order_id", cb.OrderID).Error("payment callback failed")
		c.String(http.StatusInternalServerError, "error")
		return
	}

	infrastructure.PaymentOutcomes.WithLabelValues(string(status)).Inc()
	c.String(http.StatusOK, "OK")
}
