package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workload-dashboard/internal/credentials"
	"github.com/yukikurage/workload-dashboard/internal/dto"
)

// CredentialState reports the credentials currently held
type CredentialState interface {
	Current() credentials.Credentials
}

type HealthHandler struct {
	creds CredentialState
}

func NewHealthHandler(creds CredentialState) *HealthHandler {
	return &HealthHandler{creds: creds}
}

// Health never calls Wrike
func (h *HealthHandler) Health(c *gin.Context) {
	current := h.creds.Current()
	c.JSON(http.StatusOK, dto.HealthResponse{
		OK:              true,
		WrikeHost:       current.Host,
		SecretStore:     "env",
		HasAccessToken:  current.AccessToken != "",
		HasRefreshToken: current.RefreshToken != "",
	})
}
