package middleware

import (
	"context"
	"net/http"

	"github.com/andrewpaige1/mindflow-api/auth"
	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/utils"
)

type UserSyncer interface {
	SyncUser(ctx context.Context, subject, email, username string) (*models.User, error)
}

// SyncUserMiddleware ensures the token's user exists in the DB and attaches
// it to the request context.
func SyncUserMiddleware(users UserSyncer) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, _ := utils.GetClaims(r)
			identity, err := auth.IdentityFromClaims(claims)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "No authenticated subject found")
				return
			}

			user, err := users.SyncUser(r.Context(), identity.Subject, identity.Email, identity.Username)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Str("subject", identity.Subject).Msg("failed to sync user")
				utils.RespondError(w, http.StatusInternalServerError, "Failed to load user")
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithUser(r.Context(), user)))
		}
	}
}
