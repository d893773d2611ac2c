package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sergeyvolkov/vk-dating-bot/internal/db"
)

// ProfileRepository provides data access methods for candidate profiles
// and their photos, including the next-candidate selection query.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB
// connection (or transaction).
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Upsert inserts or updates a profile keyed by its VK identity.
//
// Behavior:
//   - If vk_id exists → all mutable attributes and updated_at are
//     overwritten with the new snapshot.
//   - If it doesn't → a new row is inserted.
//   - The unique index on vk_id is the sole serialization point, so two
//     simultaneous ingestions of the same account merge instead of failing.
//
// Returns the internal profile id in both cases.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *db.Profile) (uint64, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vk_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "sex", "city_id", "birth_date", "profile_url", "updated_at"}),
		}).
		Create(profile).Error
	if err != nil {
		return 0, err
	}

	// The conflict-update path does not populate profile.ID on every
	// dialect, so resolve it explicitly.
	var row db.Profile
	if err := r.db.WithContext(ctx).Select("id").Where("vk_id = ?", profile.VKID).Take(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

// GetByVKID returns the profile for an external VK identity.
// Returns gorm.ErrRecordNotFound if the account was never ingested.
func (r *ProfileRepository) GetByVKID(ctx context.Context, vkID int64) (*db.Profile, error) {
	var profile db.Profile
	if err := r.db.WithContext(ctx).Where("vk_id = ?", vkID).Take(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// NextCandidate returns the next eligible profile for a user.
//
// Behavior:
//   - Excludes every profile the user has already judged (any status).
//   - Excludes the user's current profile pointer, when set.
//   - With a cursor, only profiles with a strictly greater id qualify.
//   - Picks the smallest qualifying id (ORDER BY id ASC LIMIT 1), which
//     makes repeated calls with an advancing cursor a monotonic traversal
//     with no repeats and no skips.
//
// Returns gorm.ErrRecordNotFound when no eligible profile remains.
func (r *ProfileRepository) NextCandidate(
	ctx context.Context,
	userID uint64,
	currentProfileID *uint64,
	cursor *uint64,
) (*db.Profile, error) {
	judged := r.db.
		Model(&db.Decision{}).
		Select("vk_profiles_id").
		Where("user_id = ?", userID)

	query := r.db.WithContext(ctx).
		Where("id NOT IN (?)", judged)

	if currentProfileID != nil {
		query = query.Where("id <> ?", *currentProfileID)
	}
	if cursor != nil {
		query = query.Where("id > ?", *cursor)
	}

	var candidate db.Profile
	if err := query.Order("id ASC").First(&candidate).Error; err != nil {
		return nil, err
	}
	return &candidate, nil
}

// AddPhoto stores a canonical photo token for a profile if the
// (profile, token) pair is not already present. Re-ingestion is a no-op.
func (r *ProfileRepository) AddPhoto(ctx context.Context, profileID uint64, token string) error {
	photo := db.Photo{
		ProfileID: profileID,
		PhotoID:   token,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vk_profiles_id"}, {Name: "photo_id"}},
			DoNothing: true,
		}).
		Create(&photo).Error
}

// TopPhotos returns up to limit photos for a profile, most recently
// fetched first. Id breaks ties within one ingestion batch so the order
// is stable.
func (r *ProfileRepository) TopPhotos(ctx context.Context, profileID uint64, limit int) ([]db.Photo, error) {
	var photos []db.Photo
	err := r.db.WithContext(ctx).
		Where("vk_profiles_id = ?", profileID).
		Order("fetched_at DESC, id DESC").
		Limit(limit).
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	return photos, nil
}
