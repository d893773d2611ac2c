package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedNames = []struct {
	first string
	last  string
	sex   int16
}{
	{"Анна", "Иванова", 1},
	{"Мария", "Петрова", 1},
	{"Екатерина", "Смирнова", 1},
	{"Ольга", "Кузнецова", 1},
	{"Дарья", "Попова", 1},
	{"Алексей", "Соколов", 2},
	{"Дмитрий", "Лебедев", 2},
	{"Иван", "Козлов", 2},
	{"Сергей", "Новиков", 2},
	{"Андрей", "Морозов", 2},
}

// SeedDemoData resets the store and fills it with demo candidate profiles.
//
// Behavior:
//  1. Clears decisions, photos, users and profiles.
//  2. Creates 20 profiles (vk ids 100001..100020) with 2-3 photo tokens each.
//  3. Uses the same vk_id upsert the ingestion path uses, so reseeding an
//     existing database is safe.
//
// Works on both PostgreSQL and the SQLite test driver.
func SeedDemoData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"like_dislike", "vk_photos", "users", "vk_profiles"} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	for i := 0; i < 20; i++ {
		n := seedNames[i%len(seedNames)]
		vkID := int64(100001 + i)

		first := n.first
		last := n.last
		sex := n.sex
		city := 1 // Moscow in the VK city database
		bdate := fmt.Sprintf("%d.%d.%d", 1+r.Intn(28), 1+r.Intn(12), 1985+r.Intn(15))
		url := ProfileURLFor(vkID)

		profile := Profile{
			VKID:       vkID,
			FirstName:  &first,
			LastName:   &last,
			Sex:        &sex,
			CityID:     &city,
			BirthDate:  &bdate,
			ProfileURL: &url,
		}
		if err := database.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vk_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "sex", "city_id", "birth_date", "profile_url", "updated_at"}),
		}).Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile %d: %w", vkID, err)
		}

		for j := 0; j < 2+r.Intn(2); j++ {
			photo := Photo{
				ProfileID: profile.ID,
				PhotoID:   fmt.Sprintf("%d_%d", vkID, 456000+j),
			}
			if err := database.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "vk_profiles_id"}, {Name: "photo_id"}},
				DoNothing: true,
			}).Create(&photo).Error; err != nil {
				return fmt.Errorf("failed to seed photo for %d: %w", vkID, err)
			}
		}
	}
	log.Println("Seeded 20 demo profiles.")

	return nil
}
