// Package membership answers the relationship questions every mutation
// is gated on: is this user a member of that group, is this user the
// group's admin. Admin is never stored; it is always derived from the
// group's creator so there is no second source of truth to drift.
package membership

import (
	"gorm.io/gorm"

	"github.com/lukasweber/fbet/pkg/fbet/models"
)

// IsMember reports whether a membership row exists for the pair.
func IsMember(db *gorm.DB, userID, groupID uint) (bool, error) {
	var count int64
	err := db.Model(&models.GroupMembership{}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsAdmin reports whether the user created the group.
func IsAdmin(group *models.Group, userID uint) bool {
	return group.CreatedBy == userID
}

// IsGroupAdmin loads the group and checks IsAdmin. Returns
// gorm.ErrRecordNotFound when the group does not exist, so callers can
// keep reporting missing groups before denied access.
func IsGroupAdmin(db *gorm.DB, userID, groupID uint) (bool, error) {
	var group models.Group
	if err := db.First(&group, groupID).Error; err != nil {
		return false, err
	}
	return IsAdmin(&group, userID), nil
}
