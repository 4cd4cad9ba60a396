package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workload-dashboard/internal/credentials"
	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
)

// CredentialSource exposes the Wrike credentials held by the server
type CredentialSource interface {
	Sync(ctx context.Context) error
	Current() credentials.Credentials
	CanRefresh() bool
}

// RequireCredentials rejects requests that would reach Wrike when neither an
// access token nor a usable refresh token is configured
func RequireCredentials(source CredentialSource, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		if err := source.Sync(c.Request.Context()); err != nil {
			logger.WarnContext(c.Request.Context(), "credential sync failed", "error", err)
		}

		if source.Current().AccessToken == "" && !source.CanRefresh() {
			apierrors.Unauthorized(c, "Wrike credentials are not configured. "+apierrors.ReauthGuidance)
			c.Abort()
			return
		}
		c.Next()
	}
}
