package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SevereCloud/vksdk/v2/api"
	"github.com/SevereCloud/vksdk/v2/events"
	longpoll "github.com/SevereCloud/vksdk/v2/longpoll-bot"
)

// Bot runs the VK group long-poll loop and feeds inbound messages to the
// Handler. Each message is handled on its own goroutine; the data layer
// is safe under concurrent invocation, so bursty double-taps are fine.
type Bot struct {
	lp      *longpoll.LongPoll
	handler *Handler
	log     *slog.Logger
}

func New(botAPI *api.VK, groupID int, handler *Handler, log *slog.Logger) (*Bot, error) {
	lp, err := longpoll.NewLongPoll(botAPI, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to init long poll: %w", err)
	}

	b := &Bot{lp: lp, handler: handler, log: log}

	lp.MessageNew(func(ctx context.Context, obj events.MessageNewObject) {
		fromID := int64(obj.Message.FromID)
		if fromID <= 0 {
			// ignore messages from communities
			return
		}
		go b.handler.HandleMessage(ctx, fromID, obj.Message.Text)
	})

	return b, nil
}

// Run blocks, listening for events until Shutdown is called.
func (b *Bot) Run() error {
	b.log.Info("long poll started")
	return b.lp.Run()
}

func (b *Bot) Shutdown() {
	b.lp.Shutdown()
}
