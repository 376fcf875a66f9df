package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/chainsafe/agent-associations/pkg/app/errors"
	apphttp "github.com/chainsafe/agent-associations/pkg/app/http"
)

// Middleware requires a valid bearer token on every request when the
// validator is configured, and is a pass-through otherwise. The agent DID
// (agent_did, falling back to sub) and optional evm_address claim are placed
// on the request context.
func Middleware(v *JWTValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !v.IsConfigured() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				apphttp.WriteError(w, apperrors.UnAuthorizedError(errors.New("missing bearer token"), "authentication required"))
				return
			}

			claims, err := v.ValidateToken(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.Debug("rejected bearer token", zap.Error(err))
				apphttp.WriteError(w, apperrors.UnAuthorizedError(err, "invalid token"))
				return
			}

			ctx := r.Context()
			if agent := claims.Agent(); agent != "" {
				ctx = WithSubject(ctx, agent)
			}
			if ValidateEVMAddress(claims.EVMAddress) {
				ctx = WithEVMAddress(ctx, NormalizeAddress(claims.EVMAddress))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
