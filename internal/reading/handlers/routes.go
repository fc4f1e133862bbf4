package handlers

import (
	"github.com/gin-gonic/gin"
	commonhandlers "github.com/ilawngbayan/storybooks/internal/common/handlers"
	"github.com/ilawngbayan/storybooks/internal/common/middleware"
	"github.com/ilawngbayan/storybooks/internal/docs"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
)

// RegisterRoutes mounts the reading API. Everything under /api needs a bearer
// token except the beacon, which authenticates through its body.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/reading-sessions/end-beacon", h.EndSessionBeacon)

	api := r.Group("/api",
		middleware.AuthRequired(h.tokens),
		middleware.Maintenance(h.settings, models.RoleAdmin),
	)

	sessions := api.Group("/reading-sessions")
	{
		sessions.POST("/start", h.StartSession)
		sessions.POST("/end", h.EndSession)
		sessions.GET("/active/:bookId", h.ActiveSession)
		sessions.GET("/history/:bookId", h.SessionHistory)
	}

	progress := api.Group("/progress")
	{
		progress.POST("", h.RecordProgress)
		progress.GET("", h.ListProgress)
		progress.GET("/stream", middleware.RequireRole(models.RoleTeacher, models.RoleAdmin), h.ProgressStream)
		progress.GET("/:bookId", h.GetProgress)
	}

	books := api.Group("/books")
	{
		books.GET("", h.ListBooks)
		books.GET("/:bookId", h.GetBook)
		books.POST("/:bookId/complete", h.CompleteBook)
	}

	settings := api.Group("/settings")
	{
		settings.GET("/maintenance", h.GetMaintenance)
		settings.PUT("/maintenance", middleware.RequireRole(models.RoleAdmin), h.SetMaintenance)
	}
}

// documented lists the routes published in /api/docs/openapi.json.
var documented = map[string]docs.Route{
	docs.Key("POST", "/api/reading-sessions/start"):          {Summary: "Start or resume a reading session"},
	docs.Key("POST", "/api/reading-sessions/end"):            {Summary: "End the open reading session"},
	docs.Key("POST", "/api/reading-sessions/end-beacon"):     {Summary: "End a session on page unload", Public: true},
	docs.Key("GET", "/api/reading-sessions/active/:bookId"):  {Summary: "Get the open reading session"},
	docs.Key("GET", "/api/reading-sessions/history/:bookId"): {Summary: "List reading sessions for a book"},
	docs.Key("POST", "/api/progress"):                        {Summary: "Record reading progress"},
	docs.Key("GET", "/api/progress"):                         {Summary: "List visible reading progress"},
	docs.Key("GET", "/api/progress/stream"):                  {Summary: "Stream progress events over websocket"},
	docs.Key("GET", "/api/progress/:bookId"):                 {Summary: "Get progress for a book"},
	docs.Key("GET", "/api/books"):                            {Summary: "List books"},
	docs.Key("GET", "/api/books/:bookId"):                    {Summary: "Get a book with pages and questions"},
	docs.Key("POST", "/api/books/:bookId/complete"):          {Summary: "Mark a book complete"},
	docs.Key("GET", "/api/settings/maintenance"):             {Summary: "Get maintenance mode"},
	docs.Key("PUT", "/api/settings/maintenance"):             {Summary: "Set maintenance mode"},
}

// NewRouter builds the public gin engine with the shared middleware chain,
// the health endpoints, the API document and the reading API.
func NewRouter(h *Handler, health *commonhandlers.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorHandler(),
		middleware.RequestLogger(),
		middleware.CORS(),
	)

	if health != nil {
		health.RegisterRoutes(r)
	}
	docs.NewDocumentationHandler(r, documented, h.version).RegisterRoutes()
	h.RegisterRoutes(r)
	return r
}
