package middleware

import (
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"

	"github.com/andrewpaige1/mindflow-api/auth"
	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/utils"
)

// EnsureValidToken validates the bearer token (or the auth_token cookie) of
// every request that carries one. Requests without a token pass through so
// public routes keep working; SyncUserMiddleware rejects them on private ones.
func EnsureValidToken(a *auth.Authenticator) func(next http.Handler) http.Handler {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("encountered error while validating JWT")
		utils.RespondError(w, http.StatusUnauthorized, "Failed to validate JWT.")
	}

	mw := jwtmiddleware.New(
		a.ValidateToken,
		jwtmiddleware.WithTokenExtractor(jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			cookieTokenExtractor,
		)),
		jwtmiddleware.WithCredentialsOptional(true),
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(next http.Handler) http.Handler {
		return mw.CheckJWT(next)
	}
}

// cookieTokenExtractor reads the auth_token cookie set by the web app. A
// missing cookie is not an error.
func cookieTokenExtractor(r *http.Request) (string, error) {
	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return "", nil
	}
	return cookie.Value, nil
}
