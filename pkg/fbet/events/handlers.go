package events

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lukasweber/fbet/pkg/fbet/auth"
	"github.com/lukasweber/fbet/pkg/fbet/membership"
	"github.com/lukasweber/fbet/pkg/fbet/models"
)

// Handler handles event-related requests
type Handler struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewHandler creates a new events handler
func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{db: db, log: log}
}

// CreateEventRequest represents the request to create an event
type CreateEventRequest struct {
	GroupID       uint       `json:"group_id" binding:"required"`
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description"`
	Question      string     `json:"question" binding:"required"`
	Options       []string   `json:"options" binding:"required,min=1"`
	EventDatetime *time.Time `json:"event_datetime"`
}

// SetResultRequest represents the request to record an event result
type SetResultRequest struct {
	EventID       uint   `json:"event_id" binding:"required"`
	WinningOption string `json:"winning_option" binding:"required"`
}

// EventResponse represents an event in API responses
type EventResponse struct {
	ID            uint       `json:"id"`
	GroupID       uint       `json:"group_id"`
	CreatedBy     uint       `json:"created_by"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	WinningOption *string    `json:"winning_option"`
	EventDatetime *time.Time `json:"event_datetime"`
}

func eventResponse(e *models.Event) EventResponse {
	return EventResponse{
		ID:            e.ID,
		GroupID:       e.GroupID,
		CreatedBy:     e.CreatedBy,
		Title:         e.Title,
		Description:   e.Description,
		Question:      e.Question,
		Options:       e.Options,
		WinningOption: e.WinningOption,
		EventDatetime: e.EventDatetime,
	}
}

// Create creates a new event in a group (group admin only)
// @Summary Create an event
// @Description Create a prediction event; only the group admin may do this
// @Tags events
// @Accept json
// @Produce json
// @Param request body CreateEventRequest true "Event details"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Admin access required"
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /events [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var group models.Group
	if err := h.db.First(&group, req.GroupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	if !membership.IsAdmin(&group, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the group admin can create events in this group"})
		return
	}

	event := models.Event{
		GroupID:       group.ID,
		CreatedBy:     userID,
		Title:         req.Title,
		Description:   req.Description,
		Question:      req.Question,
		Options:       req.Options,
		EventDatetime: req.EventDatetime,
	}
	if err := h.db.Create(&event).Error; err != nil {
		h.log.Error("failed to create event", zap.Uint("group_id", group.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	h.log.Info("event created", zap.Uint("event_id", event.ID), zap.Uint("group_id", group.ID))
	c.JSON(http.StatusCreated, eventResponse(&event))
}

// Get returns a specific event (group members only)
// @Summary Get an event
// @Description Get a single event; only members of its group may look
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} EventResponse
// @Failure 403 {object} map[string]string "Not a member"
// @Failure 404 {object} map[string]string "Event not found"
// @Security BearerAuth
// @Router /events/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var event models.Event
	if err := h.db.First(&event, eventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	isMember, err := membership.IsMember(h.db, userID, event.GroupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "User is not a member of the group this event belongs to"})
		return
	}

	c.JSON(http.StatusOK, eventResponse(&event))
}

// ListForGroup returns all events of a group in creation order
// @Summary List group events
// @Description Get all events of a group; only members may look
// @Tags events
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {array} EventResponse
// @Failure 403 {object} map[string]string "Not a member"
// @Security BearerAuth
// @Router /events/group/{groupId} [get]
func (h *Handler) ListForGroup(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID, err := strconv.ParseUint(c.Param("groupId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	isMember, err := membership.IsMember(h.db, userID, uint(groupID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "User is not a member of this group"})
		return
	}

	var events []models.Event
	if err := h.db.Where("group_id = ?", groupID).Order("id").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	resp := make([]EventResponse, len(events))
	for i := range events {
		resp[i] = eventResponse(&events[i])
	}
	c.JSON(http.StatusOK, resp)
}

// SetResult records the winning option of an event (group admin only).
// The option must match one of the stored options exactly; re-setting a
// result overwrites the previous one.
// @Summary Set an event result
// @Description Record the winning option; only the group admin may do this
// @Tags events
// @Accept json
// @Produce json
// @Param request body SetResultRequest true "Result"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Unknown option"
// @Failure 403 {object} map[string]string "Admin access required"
// @Failure 404 {object} map[string]string "Event or group not found"
// @Security BearerAuth
// @Router /events/result [post]
func (h *Handler) SetResult(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req SetResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var event models.Event
	if err := h.db.First(&event, req.EventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	var group models.Group
	if err := h.db.First(&group, event.GroupID).Error; err != nil {
		// Should not happen with intact foreign keys.
		c.JSON(http.StatusNotFound, gin.H{"error": "Associated group not found"})
		return
	}

	if !membership.IsAdmin(&group, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the group admin can set the event result"})
		return
	}

	valid := false
	for _, opt := range event.Options {
		if opt == req.WinningOption {
			valid = true
			break
		}
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("'%s' is not a valid option for this event. Valid options are: %v", req.WinningOption, event.Options),
		})
		return
	}

	event.WinningOption = &req.WinningOption
	if err := h.db.Save(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set event result"})
		return
	}

	h.log.Info("event result set",
		zap.Uint("event_id", event.ID),
		zap.String("winning_option", req.WinningOption),
	)
	c.JSON(http.StatusOK, gin.H{
		"event_id":       event.ID,
		"winning_option": req.WinningOption,
		"message":        "Event result set successfully",
	})
}

// RegisterRoutes registers event routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.POST("/result", h.SetResult)
	rg.GET("/group/:groupId", h.ListForGroup)
	rg.GET("/:id", h.Get)
}
