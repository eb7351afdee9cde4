package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/provider"
	"github.com/clipforge/clipforge/internal/store"
	"github.com/clipforge/clipforge/internal/studio"
)

type Handler struct {
	Cfg      config.Config
	Repo     *store.Repo
	Gateway  provider.Gateway
	Sessions *studio.Manager
	Turns    *studio.TurnHandler
}

func NewHandler(cfg config.Config, repo *store.Repo, gateway provider.Gateway, sessions *studio.Manager, turns *studio.TurnHandler) *Handler {
	return &Handler{
		Cfg:      cfg,
		Repo:     repo,
		Gateway:  gateway,
		Sessions: sessions,
		Turns:    turns,
	}
}

// apiKey pulls the caller's provider credential. The proxy endpoints answer
// in the provider error shape so the browser handles both origins uniformly.
func apiKey(c *gin.Context) (string, bool) {
	key := c.GetHeader("X-Api-Key")
	if key == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
			"code":    "invalid_api_key",
			"message": "API key is required",
		}})
		return "", false
	}
	return key, true
}

func providerFail(c *gin.Context, err error) {
	pe := provider.Classify(err)
	c.JSON(provider.StatusForCode(pe.Code), gin.H{"error": gin.H{
		"code":    pe.Code,
		"message": pe.Message,
	}})
}

func invalidRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
		"code":    "invalid_request",
		"message": msg,
	}})
}
