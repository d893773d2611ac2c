package matchmaker

import (
	"context"
	"strings"
)

// attachmentPrefix is the literal VK prepends to photo attachment
// references ("photo<owner>_<id>"). The store keeps the unprefixed form;
// outgoing candidate views re-attach it.
const attachmentPrefix = "photo"

// ProfileSnapshot is one VK account's attribute snapshot as returned by
// the external source. Optional fields are pointers so a missing value is
// distinguishable from a zero one.
type ProfileSnapshot struct {
	VKID      int64
	FirstName *string
	LastName  *string
	Sex       *int16
	CityID    *int
	BirthDate *string
}

// ProfileSource is the external profile/photo data source. Implemented by
// the VK API adapter in production and by a fake in tests.
type ProfileSource interface {
	// FetchProfile returns the snapshot for a VK identity, or a NotFound
	// error when VK knows no such account.
	FetchProfile(ctx context.Context, vkID int64) (*ProfileSnapshot, error)

	// FetchTopPhotos returns up to n attachment tokens for the account's
	// profile album, ranked by like count descending.
	FetchTopPhotos(ctx context.Context, vkID int64, n int) ([]string, error)
}

// CandidateView is the next-candidate result handed to the transport.
// ProfileID doubles as the follow-up selection cursor; VKID is what a
// subsequent decision is recorded against.
type CandidateView struct {
	ProfileID  uint64
	VKID       int64
	FirstName  string
	LastName   string
	ProfileURL string
	Photos     []string // attachment-format tokens, prefix included
}

// FavoriteView is one entry of a user's favorites list.
type FavoriteView struct {
	FirstName  string
	LastName   string
	ProfileURL string
}

// canonicalToken strips the attachment prefix, if present, before storage.
func canonicalToken(token string) string {
	return strings.TrimPrefix(token, attachmentPrefix)
}

// attachmentToken re-attaches the prefix expected by the messaging side.
func attachmentToken(token string) string {
	if token == "" || strings.HasPrefix(token, attachmentPrefix) {
		return token
	}
	return attachmentPrefix + token
}
