package interfaces

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"job-board/infrastructure"
	"job-board/usecase"
)

// Dependencies are the services the HTTP API is built on.
type Dependencies struct {
	Listings   *usecase.ListingUsecase
	Favorites  *usecase.FavoriteUsecase
	Auth       *usecase.AuthUsecase
	Blog       *usecase.BlogUsecase
	CVs        *usecase.CVUsecase
	Assistant  *usecase.AssistantUsecase
	Chat       *usecase.ChatUsecase
	Promotions *usecase.PromotionUsecase
	Tokens     TokenParser
	Hub        *Hub
	Limiter    *RateLimiter
	SiteURL    string
	Log        *logrus.Entry
}

type HTTPHandler struct {
	listings   *usecase.ListingUsecase
	favorites  *usecase.FavoriteUsecase
	auth       *usecase.AuthUsecase
	blog       *usecase.BlogUsecase
	cvs        *usecase.CVUsecase
	assistant  *usecase.AssistantUsecase
	chat       *usecase.ChatUsecase
	promotions *usecase.PromotionUsecase
	hub        *Hub
	upgrader   websocket.Upgrader
	log        *logrus.Entry
}

// NewHTTPHandler installs middleware and every route on router.
func NewHTTPHandler(router *gin.Engine, deps Dependencies) *HTTPHandler {
	h := &HTTPHandler{
		listings:   deps.Listings,
		favorites:  deps.Favorites,
		auth:       deps.Auth,
		blog:       deps.Blog,
		cvs:        deps.CVs,
		assistant:  deps.Assistant,
		chat:       deps.Chat,
		promotions: deps.Promotions,
		hub:        deps.Hub,
		log:        deps.Log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOrigin(deps.SiteURL),
		},
	}

	router.Use(RequestLogger(deps.Log), Metrics())
	if deps.Limiter != nil {
		router.Use(deps.Limiter.Handler())
	}
	router.Use(Authenticate(deps.Tokens, deps.Auth))

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(infrastructure.MetricsHandler()))

	authed := RequireAuth()
	adminOnly := RequireAdmin()

	auth := router.Group("/auth")
	auth.POST("/signup", h.SignUp)
	auth.POST("/signin", h.SignIn)
	auth.POST("/password-reset", h.RequestPasswordReset)
	auth.POST("/password-reset/confirm", h.ResetPassword)
	auth.DELETE("/account", authed, h.DeleteAccount)

	me := router.Group("/me", authed)
	me.GET("", h.Profile)
	me.PATCH("", h.UpdateProfile)
	me.GET("/listings", h.MyListings)

	listings := router.Group("/listings")
	listings.GET("", h.SearchListings)
	listings.POST("", authed, h.CreateListing)
	listings.GET("/:id", h.GetListing)
	listings.PATCH("/:id", authed, h.UpdateListing)
	listings.DELETE("/:id", authed, h.DeleteListing)
	listings.PUT("/:id/status", authed, h.SetListingStatus)
	listings.POST("/:id/promote", authed, h.PromoteListing)

	router.GET("/promotion/plans", h.PromotionPlans)
	router.POST("/payments/callback", h.PaymentCallback)

	favorites := router.Group("/favorites", authed)
	favorites.GET("", h.ListFavorites)
	favorites.PUT("/:listingID", h.AddFavorite)
	favorites.DELETE("/:listingID", h.RemoveFavorite)

	blog := router.Group("/blog")
	blog.GET("/posts", h.ListPosts)
	blog.POST("/posts", adminOnly, h.CreatePost)
	blog.GET("/posts/:slug", h.GetPost)
	blog.PUT("/posts/:slug", adminOnly, h.UpdatePost)
	blog.DELETE("/posts/:slug", adminOnly, h.DeletePost)
	blog.GET("/posts/:slug/comments", h.ListComments)
	blog.POST("/posts/:slug/comments", authed, h.AddComment)
	blog.DELETE("/comments/:id", authed, h.DeleteComment)

	cv := router.Group("/cv", authed)
	cv.GET("", h.GetCV)
	cv.PUT("", h.SaveCV)
	cv.POST("/import", h.ImportCV)
	cv.GET("/pdf", h.ExportCV)

	ai := router.Group("/ai", authed)
	ai.POST("/category", h.SuggestCategory)
	ai.POST("/optimize", h.OptimizeListing)

	router.GET("/chat/:session/messages", h.ChatHistory)
	router.POST("/chat/:session/messages", adminOnly, h.PostAgentMessage)
	router.GET("/ws/chat", h.ChatSocket)
	router.GET("/ws/listings", h.ListingFeed)

	return h
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// sameOrigin accepts upgrades without an Origin header or from the site
// itself.
func sameOrigin(siteURL string) func(r *http.Request) bool {
	site, err := url.Parse(siteURL)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, perr := url.Parse(origin)
		if perr != nil {
			return false
		}
		if err == nil && strings.EqualFold(u.Host, site.Host) {
			return true
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}
