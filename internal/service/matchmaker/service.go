package matchmaker

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sergeyvolkov/vk-dating-bot/internal/app"
	"github.com/sergeyvolkov/vk-dating-bot/internal/db"
	svcErr "github.com/sergeyvolkov/vk-dating-bot/internal/errors"
	"github.com/sergeyvolkov/vk-dating-bot/internal/repository"
)

// DecisionResult reports a recorded judgment back to the transport.
type DecisionResult struct {
	UserID    uint64
	ProfileID uint64
	Status    db.DecisionStatus
}

// Service implements the matchmaking core: profile ingestion, candidate
// selection, decision recording and the favorites query. Each operation
// runs as a single transaction against the shared store; the service
// itself never retries and never emits user-facing text.
type Service struct {
	appCtx *app.AppContext
	source ProfileSource
}

// NewService creates the matchmaker with dependencies from AppContext and
// the external profile source.
func NewService(appCtx *app.AppContext, source ProfileSource) *Service {
	return &Service{
		appCtx: appCtx,
		source: source,
	}
}

// Ingest synchronizes a VK account into the store and ensures a user row
// exists for it.
//
// Behavior:
//   - Fetches the snapshot and top-3 photos from the external source;
//     NotFound if VK has no such account.
//   - Upserts the profile by vk_id, overwriting mutable attributes.
//   - Creates the user row if absent; otherwise refreshes its current
//     profile pointer to the just-ingested profile.
//   - Stores unseen photo tokens in canonical (unprefixed) form.
//
// All writes happen in one transaction; any failure rolls back everything
// and surfaces the originating error. Returns the internal profile id.
func (s *Service) Ingest(ctx context.Context, vkUserID int64) (uint64, error) {
	if vkUserID == 0 {
		return 0, svcErr.InvalidArgument("vk_user_id is required")
	}

	s.appCtx.Logger.Debug("Ingest called", "vk_user_id", vkUserID)

	snapshot, err := s.source.FetchProfile(ctx, vkUserID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if snapshot == nil {
		return 0, svcErr.NotFound("vk profile not found")
	}

	tokens, err := s.source.FetchTopPhotos(ctx, vkUserID, 3)
	if err != nil {
		return 0, svcErr.Map(err)
	}

	profileURL := db.ProfileURLFor(snapshot.VKID)

	var profileID uint64
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := repository.NewProfileRepository(tx)
		users := repository.NewUserRepository(tx)

		id, err := profiles.Upsert(ctx, &db.Profile{
			VKID:       snapshot.VKID,
			FirstName:  snapshot.FirstName,
			LastName:   snapshot.LastName,
			Sex:        snapshot.Sex,
			CityID:     snapshot.CityID,
			BirthDate:  snapshot.BirthDate,
			ProfileURL: &profileURL,
		})
		if err != nil {
			return err
		}
		profileID = id

		if _, err := users.CreateOrRefresh(ctx, vkUserID, profileID); err != nil {
			return err
		}

		for _, token := range tokens {
			if err := profiles.AddPhoto(ctx, profileID, canonicalToken(token)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.appCtx.Logger.Error("Ingest failed", "vk_user_id", vkUserID, "err", err)
		return 0, svcErr.Map(err)
	}

	return profileID, nil
}

// NextCandidate returns the next unseen profile for a user, or nil when
// the pool is exhausted (not an error).
//
// Behavior:
//   - NotFound if the user was never registered; selection never creates.
//   - Excludes judged profiles and the current profile pointer; with a
//     cursor, only ids strictly above it qualify.
//   - Read-only: showing a candidate does not move the durable pointer,
//     only recording a decision (or ingestion) does.
func (s *Service) NextCandidate(ctx context.Context, vkUserID int64, cursor *uint64) (*CandidateView, error) {
	if vkUserID == 0 {
		return nil, svcErr.InvalidArgument("vk_user_id is required")
	}

	var view *CandidateView
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := repository.NewProfileRepository(tx)
		users := repository.NewUserRepository(tx)

		user, err := users.GetByVKID(ctx, vkUserID)
		if err != nil {
			return err
		}

		candidate, err := profiles.NextCandidate(ctx, user.ID, user.CurrentProfileID, cursor)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// pool exhausted: a normal empty result
			return nil
		}
		if err != nil {
			return err
		}

		photos, err := profiles.TopPhotos(ctx, candidate.ID, 3)
		if err != nil {
			return err
		}

		view = &CandidateView{
			ProfileID:  candidate.ID,
			VKID:       candidate.VKID,
			ProfileURL: candidate.URL(),
		}
		if candidate.FirstName != nil {
			view.FirstName = *candidate.FirstName
		}
		if candidate.LastName != nil {
			view.LastName = *candidate.LastName
		}
		for _, photo := range photos {
			view.Photos = append(view.Photos, attachmentToken(photo.PhotoID))
		}
		return nil
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	return view, nil
}

// PutDecision records a like/dislike judgment of a candidate profile.
//
// Behavior:
//   - All three arguments are required; status must be like or dislike.
//   - The user is lazily created on first contact: full ingestion first,
//     falling back to a minimal row if VK cannot be reached.
//   - NotFound if the candidate profile was never ingested; judgments
//     cannot reference unknown profiles.
//   - Upserts the (user, profile) decision and moves the current profile
//     pointer in the same transaction.
//
// The caller translates failures into an apology message; there are no
// retries here.
func (s *Service) PutDecision(
	ctx context.Context,
	vkUserID, vkCandidateID int64,
	status db.DecisionStatus,
) (*DecisionResult, error) {
	if vkUserID == 0 {
		return nil, svcErr.InvalidArgument("vk_user_id is required")
	}
	if vkCandidateID == 0 {
		return nil, svcErr.InvalidArgument("vk_candidate_id is required")
	}
	if !status.Valid() {
		return nil, svcErr.InvalidArgument("status must be like or dislike")
	}

	s.appCtx.Logger.Debug(
		"PutDecision called",
		"vk_user_id", vkUserID,
		"vk_candidate_id", vkCandidateID,
		"status", status,
	)

	user, err := s.ensureUser(ctx, vkUserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	var result *DecisionResult
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := repository.NewProfileRepository(tx)
		users := repository.NewUserRepository(tx)
		decisions := repository.NewDecisionRepository(tx)

		profile, err := profiles.GetByVKID(ctx, vkCandidateID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound("candidate profile has not been ingested")
		}
		if err != nil {
			return err
		}

		if err := decisions.CreateOrUpdate(ctx, user.ID, profile.ID, status); err != nil {
			return err
		}
		if err := users.SetCurrentProfile(ctx, user.ID, profile.ID); err != nil {
			return err
		}

		result = &DecisionResult{
			UserID:    user.ID,
			ProfileID: profile.ID,
			Status:    status,
		}
		return nil
	})
	if err != nil {
		s.appCtx.Logger.Error("PutDecision failed", "vk_user_id", vkUserID, "err", err)
		return nil, svcErr.Map(err)
	}

	return result, nil
}

// ListFavorites returns the profiles a user liked, most recent first.
// Unknown users and users with no likes both get an empty list, never an
// error.
func (s *Service) ListFavorites(ctx context.Context, vkUserID int64) ([]FavoriteView, error) {
	if vkUserID == 0 {
		return nil, svcErr.InvalidArgument("vk_user_id is required")
	}

	favorites := []FavoriteView{}
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		decisions := repository.NewDecisionRepository(tx)

		user, err := users.GetByVKID(ctx, vkUserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		rows, err := decisions.ListFavorites(ctx, user.ID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			view := FavoriteView{}
			if row.FirstName != nil {
				view.FirstName = *row.FirstName
			}
			if row.LastName != nil {
				view.LastName = *row.LastName
			}
			if row.ProfileURL != nil && *row.ProfileURL != "" {
				view.ProfileURL = *row.ProfileURL
			} else {
				view.ProfileURL = db.ProfileURLFor(row.VKID)
			}
			favorites = append(favorites, view)
		}
		return nil
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	return favorites, nil
}

// ensureUser resolves the user row for a VK identity, creating it when
// absent. Full ingestion is attempted first so the row carries a fresh
// profile; if that fails (VK unreachable, account hidden) a minimal row
// with just the identity is created instead.
func (s *Service) ensureUser(ctx context.Context, vkUserID int64) (*db.User, error) {
	users := repository.NewUserRepository(s.appCtx.DB)

	user, err := users.GetByVKID(ctx, vkUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, ingestErr := s.Ingest(ctx, vkUserID); ingestErr != nil {
		s.appCtx.Logger.Warn("falling back to minimal user row", "vk_user_id", vkUserID, "err", ingestErr)
		return users.CreateMinimal(ctx, vkUserID)
	}
	return users.GetByVKID(ctx, vkUserID)
}
