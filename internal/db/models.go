package db

import (
	"fmt"
	"time"
)

// DecisionStatus is the judgment a user passes on a candidate profile.
type DecisionStatus string

const (
	StatusLike    DecisionStatus = "like"
	StatusDislike DecisionStatus = "dislike"
)

// Valid reports whether s is one of the two known decision kinds.
func (s DecisionStatus) Valid() bool {
	return s == StatusLike || s == StatusDislike
}

// Profile is a snapshot of a VK account that can be shown as a candidate.
//
// VKID is the external VK identity and is unique: re-ingesting the same
// account updates the existing row (upsert by vk_id) instead of creating
// a duplicate. Everything VK may omit is a pointer so that "field absent"
// survives the round trip instead of collapsing to a zero value.
type Profile struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement"`
	VKID       int64   `gorm:"column:vk_id;uniqueIndex;not null"`
	FirstName  *string `gorm:"size:128"`
	LastName   *string `gorm:"size:128"`
	Sex        *int16
	CityID     *int
	BirthDate  *string   `gorm:"size:16"` // VK bdate, possibly without a year ("21.9")
	ProfileURL *string   `gorm:"size:255"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`

	Photos []Photo `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Profile) TableName() string { return "vk_profiles" }

// URL returns the stored profile URL, falling back to the canonical
// https://vk.com/id<vk_id> form when none was ingested.
func (p *Profile) URL() string {
	if p.ProfileURL != nil && *p.ProfileURL != "" {
		return *p.ProfileURL
	}
	return ProfileURLFor(p.VKID)
}

// ProfileURLFor derives the public profile URL for a VK identity.
func ProfileURLFor(vkID int64) string {
	return fmt.Sprintf("https://vk.com/id%d", vkID)
}

// Photo is one image attachment belonging to a profile.
//
// PhotoID stores the canonical "<owner>_<id>" token without the "photo"
// attachment prefix. (ProfileID, PhotoID) is unique so re-ingestion never
// duplicates rows; photos are only ever inserted, never updated.
type Photo struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ProfileID uint64    `gorm:"column:vk_profiles_id;not null;uniqueIndex:idx_profile_photo,priority:1"`
	PhotoID   string    `gorm:"size:128;not null;uniqueIndex:idx_profile_photo,priority:2"`
	FetchedAt time.Time `gorm:"autoCreateTime"`
}

func (Photo) TableName() string { return "vk_photos" }

// User is a bot end-user, identified by their VK id.
//
// CurrentProfileID points at the profile most recently pinned for this
// user (by a recorded decision or by ingestion, never by selection). The
// constraint nulls the pointer if the profile goes away rather than
// leaving it dangling; deleting a profile must not delete the user.
type User struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement"`
	VKUserID         int64     `gorm:"column:vk_user_id;uniqueIndex;not null"`
	CurrentProfileID *uint64   `gorm:"column:current_profile_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`

	CurrentProfile *Profile `gorm:"foreignKey:CurrentProfileID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (User) TableName() string { return "users" }

// Decision records one user's judgment of one profile.
//
// Unique (UserID, ProfileID) pair: judging the same profile again
// overwrites status and added_at in place (upsert, not append). Rows
// cascade away with either side of the pair.
type Decision struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	UserID    uint64         `gorm:"not null;uniqueIndex:idx_user_profile,priority:1"`
	ProfileID uint64         `gorm:"column:vk_profiles_id;not null;uniqueIndex:idx_user_profile,priority:2"`
	Status    DecisionStatus `gorm:"size:32;not null"`
	AddedAt   time.Time      `gorm:"autoCreateTime"`

	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Profile Profile `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Decision) TableName() string { return "like_dislike" }
