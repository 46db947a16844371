package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/commonapp/common-backend/internal/dto"
	"github.com/commonapp/common-backend/internal/geo"
	"github.com/commonapp/common-backend/internal/http/handlers/common"
	"github.com/commonapp/common-backend/internal/logger"
)

// GeocodeHandler proxies forward geocoding so clients never talk to
// the upstream directly. Lookups are best-effort: upstream failures
// come back as an empty candidate list.
type GeocodeHandler struct {
	client *geo.Client
}

func NewGeocodeHandler(client *geo.Client) *GeocodeHandler {
	return &GeocodeHandler{client: client}
}

// Search handles GET /geocode?q=...
func (h *GeocodeHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		common.RespondBadRequest(c, "query parameter q is required")
		return
	}

	limit := common.ParseIntQuery(c, "limit", 5)
	candidates, err := h.client.Search(c.Request.Context(), query, limit)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithError(err).Debug("geocode lookup failed")
		}
		candidates = nil
	}

	results := make([]dto.GeocodeResult, len(candidates))
	for i, cand := range candidates {
		results[i] = dto.GeocodeResult{
			DisplayName: cand.DisplayName,
			Latitude:    cand.Latitude,
			Longitude:   cand.Longitude,
		}
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"results": results})
}
