package groups

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lukasweber/fbet/pkg/fbet/auth"
	"github.com/lukasweber/fbet/pkg/fbet/membership"
	"github.com/lukasweber/fbet/pkg/fbet/models"
)

// Handler handles group-related requests
type Handler struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewHandler creates a new groups handler
func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{db: db, log: log}
}

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// GroupResponse represents a group in API responses
type GroupResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   uint   `json:"created_by"`
	InviteToken string `json:"invite_token,omitempty"`
	MemberCount int    `json:"member_count,omitempty"`
}

func groupResponse(g *models.Group, memberCount int) GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		InviteToken: g.InviteToken,
		MemberCount: memberCount,
	}
}

// Create creates a new group with the creator as its admin and first member
// @Summary Create a group
// @Description Create a new group; the current user becomes its admin and first member
// @Tags groups
// @Accept json
// @Produce json
// @Param request body CreateGroupRequest true "Group details"
// @Success 201 {object} GroupResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /groups [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Group and creator membership are one atomic unit: a group must
	// never exist without its creator's membership.
	var group models.Group
	err := h.db.Transaction(func(tx *gorm.DB) error {
		group = models.Group{
			Name:        req.Name,
			Description: req.Description,
			CreatedBy:   userID,
			InviteToken: uuid.NewString(),
		}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		creatorMembership := models.GroupMembership{
			UserID:  userID,
			GroupID: group.ID,
		}
		return tx.Create(&creatorMembership).Error
	})

	if err != nil {
		h.log.Error("failed to create group", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	h.log.Info("group created", zap.Uint("group_id", group.ID), zap.Uint("created_by", userID))
	c.JSON(http.StatusCreated, groupResponse(&group, 1))
}

// Get returns a specific group
// @Summary Get a group
// @Description Get details of a specific group (members only)
// @Tags groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} GroupResponse
// @Failure 403 {object} map[string]string "Not a member"
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id} [get]
func (h *Handler) Get(c *gin.Context) {
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
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this group is not allowed"})
		return
	}

	var memberCount int64
	h.db.Model(&models.GroupMembership{}).Where("group_id = ?", group.ID).Count(&memberCount)

	c.JSON(http.StatusOK, groupResponse(&group, int(memberCount)))
}

// List returns all groups the current user is a member of
// @Summary List groups
// @Description Get all groups the current user is a member of
// @Tags groups
// @Produce json
// @Param skip query int false "Offset"
// @Param limit query int false "Limit"
// @Success 200 {array} GroupResponse
// @Security BearerAuth
// @Router /groups [get]
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	var groups []models.Group
	memberGroupIDs := h.db.Model(&models.GroupMembership{}).
		Select("group_id").
		Where("user_id = ?", userID)
	if err := h.db.Where("id IN (?)", memberGroupIDs).
		Offset(skip).Limit(limit).
		Find(&groups).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
		return
	}

	resp := make([]GroupResponse, len(groups))
	for i := range groups {
		var memberCount int64
		h.db.Model(&models.GroupMembership{}).Where("group_id = ?", groups[i].ID).Count(&memberCount)
		resp[i] = groupResponse(&groups[i], int(memberCount))
	}

	c.JSON(http.StatusOK, resp)
}

// RegenerateInvite replaces the group's invite token (admin only). Old
// invite links stop working immediately.
// @Summary Regenerate the invite token
// @Description Generate a fresh invite token for the group (admin only)
// @Tags groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} GroupResponse
// @Failure 403 {object} map[string]string "Admin access required"
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id}/invite [post]
func (h *Handler) RegenerateInvite(c *gin.Context) {
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

	if !membership.IsAdmin(&group, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the group admin can regenerate the invite token"})
		return
	}

	group.InviteToken = uuid.NewString()
	if err := h.db.Save(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate invite token"})
		return
	}

	h.log.Info("invite token regenerated", zap.Uint("group_id", group.ID))
	c.JSON(http.StatusOK, groupResponse(&group, 0))
}

// RegisterRoutes registers group routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/invite", h.RegenerateInvite)
}
