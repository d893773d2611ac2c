package vk

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/SevereCloud/vksdk/v2/api"

	"github.com/sergeyvolkov/vk-dating-bot/internal/config"
	svcErr "github.com/sergeyvolkov/vk-dating-bot/internal/errors"
	"github.com/sergeyvolkov/vk-dating-bot/internal/service/matchmaker"
)

// Client adapts the VK API to the matchmaker.ProfileSource and bot
// Messenger contracts. Two tokens are in play: the group (bot) token can
// send messages and long-poll, the user token can read profiles and
// photo albums.
type Client struct {
	user *api.VK
	bot  *api.VK
}

// NewClient builds the adapter from config tokens.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		user: api.NewVK(cfg.VK.UserToken),
		bot:  api.NewVK(cfg.VK.BotToken),
	}
}

// BotAPI exposes the group-token session for the long-poll listener.
func (c *Client) BotAPI() *api.VK { return c.bot }

// FetchProfile returns the snapshot for a VK account.
// Returns a NotFound error when VK reports no such user.
func (c *Client) FetchProfile(ctx context.Context, vkID int64) (*matchmaker.ProfileSnapshot, error) {
	resp, err := c.user.UsersGet(api.Params{
		"user_ids": vkID,
		"fields":   "bdate,sex,city",
	})
	if err != nil {
		return nil, fmt.Errorf("users.get failed for %d: %w", vkID, err)
	}
	if len(resp) == 0 {
		return nil, svcErr.NotFound(fmt.Sprintf("vk user %d not found", vkID))
	}

	u := resp[0]
	snapshot := &matchmaker.ProfileSnapshot{
		VKID:      int64(u.ID),
		FirstName: optString(u.FirstName),
		LastName:  optString(u.LastName),
		BirthDate: optString(u.Bdate),
	}
	if u.Sex != 0 {
		sex := int16(u.Sex)
		snapshot.Sex = &sex
	}
	if u.City.ID != 0 {
		city := u.City.ID
		snapshot.CityID = &city
	}
	return snapshot, nil
}

// FetchTopPhotos returns up to n attachment tokens from the account's
// profile album, ranked by like count descending.
func (c *Client) FetchTopPhotos(ctx context.Context, vkID int64, n int) ([]string, error) {
	resp, err := c.user.PhotosGetExtended(api.Params{
		"owner_id": vkID,
		"album_id": "profile",
		"count":    100,
	})
	if err != nil {
		return nil, fmt.Errorf("photos.get failed for %d: %w", vkID, err)
	}

	items := resp.Items
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Likes.Count > items[j].Likes.Count
	})
	if len(items) > n {
		items = items[:n]
	}

	tokens := make([]string, 0, len(items))
	for _, photo := range items {
		tokens = append(tokens, fmt.Sprintf("photo%d_%d", photo.OwnerID, photo.ID))
	}
	return tokens, nil
}

// SendMessage delivers text (and optional photo attachments) to a chat.
// withKeyboard attaches the standard command keyboard.
func (c *Client) SendMessage(peerID int64, text string, attachments []string, withKeyboard bool) error {
	params := api.Params{
		"peer_id":   peerID,
		"random_id": rand.Int31(),
		"message":   text,
	}
	if len(attachments) > 0 {
		params["attachment"] = strings.Join(attachments, ",")
	}
	if withKeyboard {
		params["keyboard"] = commandKeyboard()
	}

	_, err := c.bot.MessagesSend(params)
	if err != nil {
		return fmt.Errorf("messages.send failed for %d: %w", peerID, err)
	}
	return nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
