package realtime

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/andrewpaige1/mindflow-api/auth"
	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/utils"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

type UserSyncer interface {
	SyncUser(ctx context.Context, subject, email, username string) (*models.User, error)
}

// Server upgrades authenticated requests to sockets served by the engine.
type Server struct {
	engine   *Engine
	auth     Authenticator
	users    UserSyncer
	upgrader websocket.Upgrader
}

// NewServer builds the socket endpoint. allowedOrigins lists the browser
// origins accepted on upgrade; "*" accepts any. Requests without an Origin
// header are always accepted.
func NewServer(engine *Engine, a Authenticator, users UserSyncer, allowedOrigins []string) *Server {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Server{
		engine: engine,
		auth:   a,
		users:  users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeHTTP authenticates the handshake before upgrading. The token comes
// from the Authorization header or the token query parameter.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithCorrelationID(r.Context(), logging.NewCorrelationID())
	log := logging.Ctx(ctx)

	token := utils.BearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	identity, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		if !errors.Is(err, auth.ErrUnauthenticated) {
			log.Error().Err(err).Msg("socket authentication failed")
		}
		log.Debug().Err(err).Msg("rejected socket handshake")
		utils.RespondError(w, http.StatusUnauthorized, "Authentication error")
		return
	}

	user, err := s.users.SyncUser(ctx, identity.Subject, identity.Email, identity.Username)
	if err != nil {
		log.Error().Err(err).Msg("failed to sync socket user")
		utils.RespondError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	session := newSession(context.WithoutCancel(ctx), conn, user.ID, s.engine)
	log.Info().Str("conn_id", session.ID()).Uint("user_id", user.ID).Msg("socket connected")
	session.run()
}
