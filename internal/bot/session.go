package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sergeyvolkov/vk-dating-bot/internal/cache"
)

// Session is the "candidate currently on screen" state for one chat.
// ProfileID feeds the next selection as the cursor; VKID is what a
// like/dislike is recorded against. Stored in Redis so a bot restart (or
// a second bot process) does not strand users mid-swipe.
type Session struct {
	ProfileID uint64 `json:"profile_id"`
	VKID      int64  `json:"vk_id"`
}

type sessionStore struct {
	cache *cache.RedisCache
}

func (s *sessionStore) save(ctx context.Context, vkUserID int64, sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.cache.SaveSession(ctx, vkUserID, string(b))
}

// load returns nil without error when no candidate is on screen.
func (s *sessionStore) load(ctx context.Context, vkUserID int64) (*Session, error) {
	payload, err := s.cache.LoadSession(ctx, vkUserID)
	if err != nil {
		return nil, err
	}
	if payload == "" {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, fmt.Errorf("invalid session payload: %w", err)
	}
	return &sess, nil
}
