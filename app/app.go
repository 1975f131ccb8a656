// Package app wires the store, access resolver, realtime engine and REST
// handlers into one http.Handler.
package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/auth"
	"github.com/andrewpaige1/mindflow-api/handlers"
	"github.com/andrewpaige1/mindflow-api/middleware"
	"github.com/andrewpaige1/mindflow-api/realtime"
	"github.com/andrewpaige1/mindflow-api/store"
)

type Options struct {
	DB             *gorm.DB
	Auth           *auth.Authenticator
	AI             handlers.AIService
	AIRatePerMin   int
	AllowedOrigins []string
}

type App struct {
	Store   *store.Store
	Rooms   *realtime.Rooms
	Handler http.Handler
}

func New(opts Options) *App {
	s := store.New(opts.DB)
	resolver := access.NewResolver(s)
	rooms := realtime.NewRooms()
	engine := realtime.NewEngine(rooms, resolver, s)

	h := &handlers.DBHandler{
		Store:   s,
		Access:  resolver,
		AI:      opts.AI,
		Limiter: handlers.NewRateLimiter(opts.AIRatePerMin, time.Minute),
	}

	api := http.NewServeMux()
	sync := middleware.SyncUserMiddleware(s)
	handle := func(pattern string, next http.HandlerFunc) {
		api.HandleFunc(pattern, middleware.Instrument(pattern, next))
	}

	// User
	handle("GET /api/users/me", sync(h.GetCurrentUser))

	// Maps
	handle("GET /api/maps", sync(h.GetMapsForUser))
	handle("GET /api/maps/shared-with-me", sync(h.GetSharedMaps))
	handle("POST /api/maps", sync(h.CreateMap))
	handle("GET /api/maps/{mapID}", sync(h.GetMapByID))
	handle("PUT /api/maps/{mapID}", sync(h.UpdateMapByID))
	handle("DELETE /api/maps/{mapID}", sync(h.DeleteMapByID))
	handle("GET /api/maps/{mapID}/access", sync(h.GetMapAccess))
	handle("POST /api/maps/{mapID}/share", sync(h.ShareMap))
	handle("DELETE /api/maps/{mapID}/share", sync(h.UnshareMap))

	// Permissions
	handle("POST /api/permissions", sync(h.InviteCollaborator))
	handle("GET /api/permissions/{mapID}", sync(h.GetPermissionsForMap))
	handle("PUT /api/permissions/{permissionID}", sync(h.UpdatePermissionRole))
	handle("DELETE /api/permissions/{permissionID}", sync(h.RevokePermission))

	// Flashcards
	handle("POST /api/flashcards", sync(h.CreateFlashCard))
	handle("GET /api/flashcards/map/{mapID}", sync(h.GetFlashcardsForMap))
	handle("DELETE /api/flashcards/{flashcardID}", sync(h.DeleteFlashCardByID))

	// Word clouds
	handle("POST /api/wordclouds", sync(h.CreateWordCloud))
	handle("GET /api/wordclouds/map/{mapID}", sync(h.GetWordCloudsForMap))
	handle("DELETE /api/wordclouds/{wordCloudID}", sync(h.DeleteWordCloud))

	// AI
	handle("POST /api/ai/generate-flashcard", sync(h.GenerateFlashcard))
	handle("POST /api/ai/process-wordcloud", sync(h.ProcessWordCloud))

	// Public
	handle("GET /api/public/maps/{shareID}", h.GetPublicMap)
	handle("GET /api/health", h.Health)
	api.Handle("GET /metrics", promhttp.Handler())

	root := http.NewServeMux()
	// The socket authenticates its own handshake, including ?token=.
	root.Handle("GET /ws", realtime.NewServer(engine, opts.Auth, s, opts.AllowedOrigins))
	root.Handle("/", middleware.EnsureValidToken(opts.Auth)(api))

	return &App{Store: s, Rooms: rooms, Handler: root}
}
