package tips

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
	"github.com/lukasweber/fbet/pkg/fbet/scoring"
)

// Handler handles tip submission and scoring requests
type Handler struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewHandler creates a new tips handler
func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{db: db, log: log}
}

// SubmitTipRequest represents the request to submit a tip
type SubmitTipRequest struct {
	EventID        uint   `json:"event_id" binding:"required"`
	SelectedOption string `json:"selected_option" binding:"required"`
}

// TipResponse represents a tip in API responses
type TipResponse struct {
	ID             uint   `json:"id"`
	EventID        uint   `json:"event_id"`
	UserID         uint   `json:"user_id"`
	SelectedOption string `json:"selected_option"`
}

// PointsResponse represents the flat point total of one user in a group
type PointsResponse struct {
	UserID           uint `json:"user_id"`
	GroupID          uint `json:"group_id"`
	Points           int  `json:"points"`
	CalculatedEvents int  `json:"calculated_events"`
}

func tipResponse(t *models.Tip) TipResponse {
	return TipResponse{ID: t.ID, EventID: t.EventID, UserID: t.UserID, SelectedOption: t.SelectedOption}
}

// Submit records a tip for an event. The checks run in a fixed order and
// the first failure wins: event existence, membership, option validity,
// duplicate tip, event start time. The submitted option string is stored
// verbatim; only the comparison is normalized.
// @Summary Submit a tip
// @Description Submit a tip for an event in a group the user belongs to
// @Tags tips
// @Accept json
// @Produce json
// @Param request body SubmitTipRequest true "Tip"
// @Success 201 {object} TipResponse
// @Failure 400 {object} map[string]string "Invalid option or event already started"
// @Failure 403 {object} map[string]string "Not a member"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 409 {object} map[string]string "Tip already submitted"
// @Security BearerAuth
// @Router /tips [post]
func (h *Handler) Submit(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req SubmitTipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var event models.Event
	if err := h.db.First(&event, req.EventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	isMember, err := membership.IsMember(h.db, userID, event.GroupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to tip on events in this group"})
		return
	}

	selected := scoring.NormalizeOption(req.SelectedOption)
	valid := false
	for _, opt := range event.Options {
		if scoring.NormalizeOption(opt) == selected {
			valid = true
			break
		}
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("'%s' is not a valid option for this event", req.SelectedOption),
		})
		return
	}

	var existing models.Tip
	if err := h.db.Where("user_id = ? AND event_id = ?", userID, event.ID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Tip already submitted for this event"})
		return
	}

	if event.EventDatetime != nil && event.EventDatetime.Before(time.Now().UTC()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event has already started or finished"})
		return
	}

	tip := models.Tip{
		EventID:        event.ID,
		UserID:         userID,
		SelectedOption: req.SelectedOption,
	}
	if err := h.db.Create(&tip).Error; err != nil {
		// Unique index on (user_id, event_id) turns a racing duplicate
		// into a conflict rather than a second row.
		h.log.Warn("tip insert failed", zap.Uint("user_id", userID), zap.Uint("event_id", event.ID), zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "Tip already submitted for this event"})
		return
	}

	h.log.Info("tip submitted", zap.Uint("tip_id", tip.ID), zap.Uint("event_id", event.ID))
	c.JSON(http.StatusCreated, tipResponse(&tip))
}

// ListForEvent returns all tips of an event (group members only)
// @Summary List tips for an event
// @Description Get every tip submitted for an event; only group members may look
// @Tags tips
// @Produce json
// @Param eventId path int true "Event ID"
// @Success 200 {array} TipResponse
// @Failure 403 {object} map[string]string "Not a member"
// @Failure 404 {object} map[string]string "Event not found"
// @Security BearerAuth
// @Router /tips/event/{eventId} [get]
func (h *Handler) ListForEvent(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	eventID, err := strconv.ParseUint(c.Param("eventId"), 10, 32)
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
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to view tips for this event"})
		return
	}

	var eventTips []models.Tip
	if err := h.db.Where("event_id = ?", event.ID).Find(&eventTips).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tips"})
		return
	}

	resp := make([]TipResponse, len(eventTips))
	for i := range eventTips {
		resp[i] = tipResponse(&eventTips[i])
	}
	c.JSON(http.StatusOK, resp)
}

// finishedEvents loads the group's events with a recorded result.
func (h *Handler) finishedEvents(groupID uint) ([]scoring.FinishedEvent, error) {
	var events []models.Event
	err := h.db.Where("group_id = ? AND winning_option IS NOT NULL", groupID).Find(&events).Error
	if err != nil {
		return nil, err
	}
	finished := make([]scoring.FinishedEvent, len(events))
	for i, e := range events {
		finished[i] = scoring.FinishedEvent{EventID: e.ID, WinningOption: *e.WinningOption}
	}
	return finished, nil
}

// Points returns the current user's flat point total in a group: one
// point per correct tip across the group's finished events.
// @Summary Get my points in a group
// @Description Flat point total for the current user, one point per correct tip
// @Tags tips
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {object} PointsResponse
// @Failure 403 {object} map[string]string "Not a member"
// @Security BearerAuth
// @Router /tips/points/{groupId} [get]
func (h *Handler) Points(c *gin.Context) {
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
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to view points for this group"})
		return
	}

	finished, err := h.finishedEvents(uint(groupID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	resp := PointsResponse{
		UserID:           userID,
		GroupID:          uint(groupID),
		CalculatedEvents: len(finished),
	}
	if len(finished) == 0 {
		c.JSON(http.StatusOK, resp)
		return
	}

	eventIDs := make([]uint, len(finished))
	for i, e := range finished {
		eventIDs[i] = e.EventID
	}

	var userTips []models.Tip
	if err := h.db.Where("event_id IN ? AND user_id = ?", eventIDs, userID).Find(&userTips).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tips"})
		return
	}

	facts := make([]scoring.TipFact, len(userTips))
	for i, t := range userTips {
		facts[i] = scoring.TipFact{UserID: t.UserID, EventID: t.EventID, SelectedOption: t.SelectedOption}
	}

	resp.Points = scoring.UserPoints(finished, facts)
	c.JSON(http.StatusOK, resp)
}

// Highscore returns the ranked bonus-scored point list for a group.
// Every member appears, including members without tips or points.
// @Summary Get the group highscore
// @Description Ranked list of all members; unique correct tips score 3, shared ones 1
// @Tags tips
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {array} scoring.Entry
// @Failure 403 {object} map[string]string "Not a member"
// @Security BearerAuth
// @Router /tips/highscore/{groupId} [get]
func (h *Handler) Highscore(c *gin.Context) {
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
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to view highscore for this group"})
		return
	}

	finished, err := h.finishedEvents(uint(groupID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	var memberships []models.GroupMembership
	if err := h.db.Where("group_id = ?", groupID).Find(&memberships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch memberships"})
		return
	}
	if len(memberships) == 0 {
		c.JSON(http.StatusOK, []scoring.Entry{})
		return
	}

	memberIDs := make([]uint, len(memberships))
	for i, m := range memberships {
		memberIDs[i] = m.UserID
	}

	var users []models.User
	if err := h.db.Where("id IN ?", memberIDs).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	usersByID := make(map[uint]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	if len(users) != len(memberIDs) {
		// Membership without a user record. Tolerated: the entry falls
		// back to a synthetic label instead of failing the whole view.
		h.log.Warn("memberships without user records",
			zap.Uint("group_id", uint(groupID)),
			zap.Int("memberships", len(memberIDs)),
			zap.Int("users", len(users)),
		)
	}

	members := make([]scoring.Member, len(memberIDs))
	for i, id := range memberIDs {
		u := usersByID[id]
		members[i] = scoring.Member{UserID: id, Name: u.Name, Email: u.Email}
	}

	var facts []scoring.TipFact
	if len(finished) > 0 {
		eventIDs := make([]uint, len(finished))
		for i, e := range finished {
			eventIDs[i] = e.EventID
		}
		var groupTips []models.Tip
		if err := h.db.Where("event_id IN ? AND user_id IN ?", eventIDs, memberIDs).Find(&groupTips).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tips"})
			return
		}
		facts = make([]scoring.TipFact, len(groupTips))
		for i, t := range groupTips {
			facts[i] = scoring.TipFact{UserID: t.UserID, EventID: t.EventID, SelectedOption: t.SelectedOption}
		}
	}

	c.JSON(http.StatusOK, scoring.Highscore(finished, members, facts))
}

// RegisterRoutes registers tip and scoring routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Submit)
	rg.GET("/event/:eventId", h.ListForEvent)
	rg.GET("/points/:groupId", h.Points)
	rg.GET("/highscore/:groupId", h.Highscore)
}
