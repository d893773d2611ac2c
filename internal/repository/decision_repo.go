package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sergeyvolkov/vk-dating-bot/internal/db"
)

// FavoriteRow is one liked profile as returned by ListFavorites.
// Name and URL fields mirror the nullable profile columns.
type FavoriteRow struct {
	FirstName  *string `gorm:"column:first_name"`
	LastName   *string `gorm:"column:last_name"`
	ProfileURL *string `gorm:"column:profile_url"`
	VKID       int64   `gorm:"column:vk_id"`
}

// DecisionRepository provides data access methods for like/dislike
// judgments between a user and candidate profiles.
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new repository bound to the given DB
// connection (or transaction).
func NewDecisionRepository(database *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: database}
}

// CreateOrUpdate inserts or updates the judgment for a (user, profile) pair.
//
// Behavior:
//   - First judgment of the pair → a new row is inserted.
//   - Re-judgment → status and added_at are overwritten in place.
//   - The unique (user_id, vk_profiles_id) index guarantees exactly one
//     row per pair even under a double-tapped button.
//
// Example:
//
//	repo.CreateOrUpdate(ctx, 1, 2, db.StatusLike) // user 1 liked profile 2
func (r *DecisionRepository) CreateOrUpdate(
	ctx context.Context,
	userID, profileID uint64,
	status db.DecisionStatus,
) error {
	decision := db.Decision{
		UserID:    userID,
		ProfileID: profileID,
		Status:    status,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "vk_profiles_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "added_at"}),
		}).
		Create(&decision).Error
}

// ListFavorites returns the profiles a user marked "like", most recent
// judgment first (id breaks same-timestamp ties).
func (r *DecisionRepository) ListFavorites(ctx context.Context, userID uint64) ([]FavoriteRow, error) {
	var rows []FavoriteRow
	err := r.db.WithContext(ctx).
		Table("like_dislike ld").
		Select("p.first_name AS first_name, p.last_name AS last_name, p.profile_url AS profile_url, p.vk_id AS vk_id").
		Joins("JOIN vk_profiles p ON p.id = ld.vk_profiles_id").
		Where("ld.user_id = ? AND ld.status = ?", userID, db.StatusLike).
		Order("ld.added_at DESC, ld.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
