package schedule

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler serves the external schedule endpoints. They are public: the
// data is public anyway and the frontend shows it before login.
type Handler struct {
	fetcher *Fetcher
}

// NewHandler creates a new schedule handler
func NewHandler(fetcher *Fetcher) *Handler {
	return &Handler{fetcher: fetcher}
}

func writeFetchError(c *gin.Context, err error, source string) {
	if errors.Is(err, ErrConnectivity) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Could not fetch data from external source (" + source + ")",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "An internal error occurred while processing the external schedule",
	})
}

// Boxing returns the upcoming boxing key dates from ESPN
// @Summary Fetch the boxing schedule
// @Description Scrape the upcoming key dates from the ESPN boxing schedule page
// @Tags schedule
// @Produce json
// @Success 200 {array} BoxingEvent
// @Failure 500 {object} map[string]string "Parse failure"
// @Failure 503 {object} map[string]string "Source unreachable"
// @Router /schedule/boxing [get]
func (h *Handler) Boxing(c *gin.Context) {
	events, err := h.fetcher.BoxingSchedule(c.Request.Context())
	if err != nil {
		writeFetchError(c, err, "ESPN")
		return
	}
	c.JSON(http.StatusOK, events)
}

// Ufc returns the upcoming UFC events from the public iCalendar feed
// @Summary Fetch the UFC schedule
// @Description Get upcoming UFC events from a public iCalendar feed
// @Tags schedule
// @Produce json
// @Success 200 {array} UfcEvent
// @Failure 500 {object} map[string]string "Parse failure"
// @Failure 503 {object} map[string]string "Source unreachable"
// @Router /schedule/ufc [get]
func (h *Handler) Ufc(c *gin.Context) {
	events, err := h.fetcher.UfcSchedule(c.Request.Context())
	if err != nil {
		writeFetchError(c, err, "UFC Calendar")
		return
	}
	c.JSON(http.StatusOK, events)
}

// RegisterRoutes registers the public schedule routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/boxing", h.Boxing)
	rg.GET("/ufc", h.Ufc)
}
