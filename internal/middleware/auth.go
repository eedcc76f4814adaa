package middleware

import (
	"net/http"

	"tabeya-be/internal/auth"
	"tabeya-be/internal/logger"
	"tabeya-be/internal/utils"

	"go.uber.org/zap"
)

const ReasonUnauthorized = "unauthorized"

// Auth attaches the customer named by a valid access token. Requests without a
// token pass through anonymously; a token that fails verification is rejected.
// An empty secret disables verification entirely.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(secret) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseCustomerToken(tokenStr, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Info("rejected access token",
					zap.String("layer", "middleware"),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				utils.WriteJSONError(w, http.StatusUnauthorized, ReasonUnauthorized, err.Error())
				return
			}

			ctx := utils.SetCustomerContext(r.Context(), claims.CustomerID, claims.Subject)
			ctx = logger.WithCustomerID(ctx, claims.CustomerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
