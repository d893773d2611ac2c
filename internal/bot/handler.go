package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sergeyvolkov/vk-dating-bot/internal/cache"
	"github.com/sergeyvolkov/vk-dating-bot/internal/db"
	"github.com/sergeyvolkov/vk-dating-bot/internal/service/matchmaker"
)

// User-facing replies. The bot speaks Russian, as shipped.
const (
	msgGreeting = "Привет! Я помогу тебе найти людей для знакомства.\n" +
		"Используй кнопки ниже для взаимодействия."
	msgNoMoreCandidates = "Больше кандидатов нет."
	msgPickFirst        = "Сначала выберите кандидата."
	msgLiked            = "Пользователь добавлен в избранное!"
	msgDisliked         = "Пользователь добавлен в черный список!"
	msgLikeFailed       = "Не удалось добавить в избранное."
	msgDislikeFailed    = "Не удалось добавить в чёрный список."
	msgNoFavorites      = "Список избранных пуст."
	msgRegisterFailed   = "Ошибка при регистрации. Попробуйте позже."
	msgUnknownCommand   = "Не понимаю команду. Используй кнопки для взаимодействия."
	msgSomethingWrong   = "Что-то пошло не так. Попробуйте позже."
)

// Messenger delivers outbound messages. Implemented by the VK client; a
// fake records calls in tests.
type Messenger interface {
	SendMessage(peerID int64, text string, attachments []string, withKeyboard bool) error
}

// Handler processes one inbound chat command at a time. It owns no state
// of its own: everything durable lives in the matchmaker store, everything
// session-scoped in Redis.
type Handler struct {
	svc      *matchmaker.Service
	sessions *sessionStore
	cache    *cache.RedisCache
	msg      Messenger
	log      *slog.Logger
}

func NewHandler(svc *matchmaker.Service, rdb *cache.RedisCache, msg Messenger, log *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		sessions: &sessionStore{cache: rdb},
		cache:    rdb,
		msg:      msg,
		log:      log,
	}
}

// HandleMessage dispatches one inbound text command from a chat.
func (h *Handler) HandleMessage(ctx context.Context, vkUserID int64, text string) {
	command := strings.ToLower(strings.TrimSpace(text))

	if err := h.ensureRegistered(ctx, vkUserID); err != nil {
		h.log.Error("registration failed", "vk_user_id", vkUserID, "err", err)
		h.send(vkUserID, msgRegisterFailed, nil, false)
		return
	}

	switch command {
	case "привет", "начать", "start":
		h.send(vkUserID, msgGreeting, nil, true)

	case "следующий":
		h.showNextCandidate(ctx, vkUserID)

	case "в избранное":
		h.recordDecision(ctx, vkUserID, db.StatusLike)

	case "в черный список":
		h.recordDecision(ctx, vkUserID, db.StatusDislike)

	case "список избранных":
		h.listFavorites(ctx, vkUserID)

	default:
		h.send(vkUserID, msgUnknownCommand, nil, true)
	}
}

// ensureRegistered ingests the sender's own profile on first contact.
// A short-TTL Redis mark debounces the VK round trip so chatting does not
// re-fetch the profile on every message.
func (h *Handler) ensureRegistered(ctx context.Context, vkUserID int64) error {
	recent, err := h.cache.RecentlyIngested(ctx, vkUserID)
	if err != nil {
		h.log.Warn("ingest debounce check failed", "vk_user_id", vkUserID, "err", err)
	} else if recent {
		return nil
	}

	if _, err := h.svc.Ingest(ctx, vkUserID); err != nil {
		return err
	}
	if err := h.cache.MarkIngested(ctx, vkUserID); err != nil {
		h.log.Warn("failed to mark ingest", "vk_user_id", vkUserID, "err", err)
	}
	return nil
}

func (h *Handler) showNextCandidate(ctx context.Context, vkUserID int64) {
	var cursor *uint64
	if sess, err := h.sessions.load(ctx, vkUserID); err != nil {
		h.log.Warn("session load failed", "vk_user_id", vkUserID, "err", err)
	} else if sess != nil {
		cursor = &sess.ProfileID
	}

	candidate, err := h.svc.NextCandidate(ctx, vkUserID, cursor)
	if err != nil {
		h.log.Error("next candidate failed", "vk_user_id", vkUserID, "err", err)
		h.send(vkUserID, msgSomethingWrong, nil, true)
		return
	}
	if candidate == nil {
		h.send(vkUserID, msgNoMoreCandidates, nil, true)
		return
	}

	sess := Session{ProfileID: candidate.ProfileID, VKID: candidate.VKID}
	if err := h.sessions.save(ctx, vkUserID, sess); err != nil {
		h.log.Warn("session save failed", "vk_user_id", vkUserID, "err", err)
	}

	text := fmt.Sprintf("Имя: %s %s\nСсылка на профиль: %s",
		candidate.FirstName, candidate.LastName, candidate.ProfileURL)
	h.send(vkUserID, text, candidate.Photos, true)
}

func (h *Handler) recordDecision(ctx context.Context, vkUserID int64, status db.DecisionStatus) {
	sess, err := h.sessions.load(ctx, vkUserID)
	if err != nil {
		h.log.Warn("session load failed", "vk_user_id", vkUserID, "err", err)
	}
	if sess == nil {
		h.send(vkUserID, msgPickFirst, nil, true)
		return
	}

	if _, err := h.svc.PutDecision(ctx, vkUserID, sess.VKID, status); err != nil {
		h.log.Error("decision failed", "vk_user_id", vkUserID, "status", status, "err", err)
		if status == db.StatusLike {
			h.send(vkUserID, msgLikeFailed, nil, true)
		} else {
			h.send(vkUserID, msgDislikeFailed, nil, true)
		}
		return
	}

	if status == db.StatusLike {
		h.send(vkUserID, msgLiked, nil, true)
	} else {
		h.send(vkUserID, msgDisliked, nil, true)
	}
}

func (h *Handler) listFavorites(ctx context.Context, vkUserID int64) {
	favorites, err := h.svc.ListFavorites(ctx, vkUserID)
	if err != nil {
		h.log.Error("favorites failed", "vk_user_id", vkUserID, "err", err)
		h.send(vkUserID, msgSomethingWrong, nil, true)
		return
	}
	if len(favorites) == 0 {
		h.send(vkUserID, msgNoFavorites, nil, true)
		return
	}

	lines := make([]string, 0, len(favorites))
	for i, f := range favorites {
		lines = append(lines, fmt.Sprintf("%d. %s %s — %s", i+1, f.FirstName, f.LastName, f.ProfileURL))
	}
	h.send(vkUserID, strings.Join(lines, "\n"), nil, true)
}

func (h *Handler) send(peerID int64, text string, attachments []string, keyboard bool) {
	if err := h.msg.SendMessage(peerID, text, attachments, keyboard); err != nil {
		h.log.Error("send failed", "peer_id", peerID, "err", err)
	}
}
