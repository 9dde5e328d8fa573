package groups

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lukasweber/fbet/pkg/fbet/auth"
	"github.com/lukasweber/fbet/pkg/fbet/membership"
	"github.com/lukasweber/fbet/pkg/fbet/models"
)

// MembershipResponse represents a membership in API responses
type MembershipResponse struct {
	ID      uint `json:"id"`
	UserID  uint `json:"user_id"`
	GroupID uint `json:"group_id"`
}

// JoinRequest represents an explicit join-by-ids request
type JoinRequest struct {
	UserID  uint `json:"user_id" binding:"required"`
	GroupID uint `json:"group_id" binding:"required"`
}

func membershipResponse(m *models.GroupMembership) MembershipResponse {
	return MembershipResponse{ID: m.ID, UserID: m.UserID, GroupID: m.GroupID}
}

// JoinByToken lets the current user join the group behind an invite token
// @Summary Join a group via invite token
// @Description Join the group the invite token belongs to
// @Tags memberships
// @Produce json
// @Param token path string true "Invite token"
// @Success 201 {object} MembershipResponse
// @Failure 404 {object} map[string]string "Unknown invite token"
// @Failure 409 {object} map[string]string "Already a member"
// @Security BearerAuth
// @Router /memberships/join/{token} [post]
func (h *Handler) JoinByToken(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	token := c.Param("token")

	var group models.Group
	if err := h.db.Where("invite_token = ?", token).First(&group).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired invite link"})
		return
	}

	isMember, err := membership.IsMember(h.db, userID, group.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if isMember {
		c.JSON(http.StatusConflict, gin.H{"error": "You are already a member of this group"})
		return
	}

	m := models.GroupMembership{UserID: userID, GroupID: group.ID}
	if err := h.db.Create(&m).Error; err != nil {
		// The unique index catches the race where two join requests for
		// the same pair slip past the check above.
		h.log.Warn("membership insert failed", zap.Uint("user_id", userID), zap.Uint("group_id", group.ID), zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "You are already a member of this group"})
		return
	}

	h.log.Info("user joined group", zap.Uint("user_id", userID), zap.Uint("group_id", group.ID))
	c.JSON(http.StatusCreated, membershipResponse(&m))
}

// Join creates a membership from explicit ids. Users can only add
// themselves; the invite-token flow is the standard path.
// @Summary Join a group by ids
// @Description Join a group by explicit user and group ids (self-service only)
// @Tags memberships
// @Accept json
// @Produce json
// @Param request body JoinRequest true "Membership to create"
// @Success 201 {object} MembershipResponse
// @Failure 403 {object} map[string]string "Can only join for yourself"
// @Failure 404 {object} map[string]string "Group not found"
// @Failure 409 {object} map[string]string "Already a member"
// @Security BearerAuth
// @Router /memberships [post]
func (h *Handler) Join(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Users can only join groups for themselves"})
		return
	}

	var group models.Group
	if err := h.db.First(&group, req.GroupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	isMember, err := membership.IsMember(h.db, req.UserID, req.GroupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if isMember {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of the group"})
		return
	}

	m := models.GroupMembership{UserID: req.UserID, GroupID: req.GroupID}
	if err := h.db.Create(&m).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of the group"})
		return
	}

	c.JSON(http.StatusCreated, membershipResponse(&m))
}

// MyMemberships lists all memberships of the current user
// @Summary List my memberships
// @Description Get all group memberships of the current user
// @Tags memberships
// @Produce json
// @Success 200 {array} MembershipResponse
// @Security BearerAuth
// @Router /memberships/me [get]
func (h *Handler) MyMemberships(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var memberships []models.GroupMembership
	if err := h.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch memberships"})
		return
	}

	resp := make([]MembershipResponse, len(memberships))
	for i := range memberships {
		resp[i] = membershipResponse(&memberships[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GroupMembers lists the memberships of a group (members only)
// @Summary List group members
// @Description Get all memberships of a group; only members may look
// @Tags memberships
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {array} MembershipResponse
// @Failure 403 {object} map[string]string "Not a member"
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /memberships/group/{id} [get]
func (h *Handler) GroupMembers(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var group models.Group
	if err := h.db.First(&group, groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	isMember, err := membership.IsMember(h.db, userID, group.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this group's member list is not allowed"})
		return
	}

	var memberships []models.GroupMembership
	if err := h.db.Where("group_id = ?", group.ID).Find(&memberships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch memberships"})
		return
	}

	resp := make([]MembershipResponse, len(memberships))
	for i := range memberships {
		resp[i] = membershipResponse(&memberships[i])
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterMembershipRoutes registers membership routes
func (h *Handler) RegisterMembershipRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Join)
	rg.POST("/join/:token", h.JoinByToken)
	rg.GET("/me", h.MyMemberships)
	rg.GET("/group/:id", h.GroupMembers)
}
