package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sergeyvolkov/vk-dating-bot/internal/db"
)

// UserRepository provides data access methods for bot users and their
// current-candidate pointer.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB
// connection (or transaction).
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByVKID returns the user row for a VK identity.
// Returns gorm.ErrRecordNotFound for first-contact users.
func (r *UserRepository) GetByVKID(ctx context.Context, vkUserID int64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).Where("vk_user_id = ?", vkUserID).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateOrRefresh ensures a user row exists for the VK identity and pins
// its current profile pointer to the just-ingested profile.
//
// Behavior:
//   - New identity → row created with the pointer set.
//   - Existing identity → current_profile_id and updated_at refreshed.
func (r *UserRepository) CreateOrRefresh(ctx context.Context, vkUserID int64, profileID uint64) (*db.User, error) {
	user := db.User{
		VKUserID:         vkUserID,
		CurrentProfileID: &profileID,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vk_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_profile_id", "updated_at"}),
		}).
		Create(&user).Error
	if err != nil {
		return nil, err
	}
	return r.GetByVKID(ctx, vkUserID)
}

// CreateMinimal creates a bare user row holding only the VK identity.
// Used as the fallback when full ingestion is not possible. Racing
// creations collapse onto the unique vk_user_id index.
func (r *UserRepository) CreateMinimal(ctx context.Context, vkUserID int64) (*db.User, error) {
	user := db.User{VKUserID: vkUserID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vk_user_id"}},
			DoNothing: true,
		}).
		Create(&user).Error
	if err != nil {
		return nil, err
	}
	return r.GetByVKID(ctx, vkUserID)
}

// SetCurrentProfile moves the user's current-candidate pointer and
// refreshes updated_at.
func (r *UserRepository) SetCurrentProfile(ctx context.Context, userID, profileID uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		Update("current_profile_id", profileID).Error
}
