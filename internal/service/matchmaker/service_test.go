package matchmaker_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sergeyvolkov/vk-dating-bot/internal/app"
	"github.com/sergeyvolkov/vk-dating-bot/internal/db"
	svcErr "github.com/sergeyvolkov/vk-dating-bot/internal/errors"
	"github.com/sergeyvolkov/vk-dating-bot/internal/service/matchmaker"
)

//
// Test helpers
//

// fakeSource is an in-memory ProfileSource.
type fakeSource struct {
	snapshots map[int64]*matchmaker.ProfileSnapshot
	photos    map[int64][]string
	fetches   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		snapshots: map[int64]*matchmaker.ProfileSnapshot{},
		photos:    map[int64][]string{},
	}
}

func (f *fakeSource) addAccount(vkID int64, first, last string, photos ...string) {
	f.snapshots[vkID] = &matchmaker.ProfileSnapshot{
		VKID:      vkID,
		FirstName: &first,
		LastName:  &last,
	}
	f.photos[vkID] = photos
}

func (f *fakeSource) FetchProfile(ctx context.Context, vkID int64) (*matchmaker.ProfileSnapshot, error) {
	f.fetches++
	snap, ok := f.snapshots[vkID]
	if !ok {
		return nil, svcErr.NotFound(fmt.Sprintf("vk user %d not found", vkID))
	}
	return snap, nil
}

func (f *fakeSource) FetchTopPhotos(ctx context.Context, vkID int64, n int) ([]string, error) {
	tokens := f.photos[vkID]
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return tokens, nil
}

// setupService spins up an in-memory SQLite DB with the full schema and
// wires it, a discarding logger and the fake source into a Service.
func setupService(t *testing.T) (*matchmaker.Service, *gorm.DB, *fakeSource) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))

	source := newFakeSource()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, nil, logger)
	return matchmaker.NewService(appCtx, source), gdb, source
}

//
// Tests
//

func TestIngestCreatesProfileUserAndPhotos(t *testing.T) {
	ctx := context.Background()
	svc, gdb, source := setupService(t)
	source.addAccount(555, "Anna", "Ivanova", "photo555_1", "555_2")

	profileID, err := svc.Ingest(ctx, 555)
	require.NoError(t, err)
	require.NotZero(t, profileID)

	var profile db.Profile
	require.NoError(t, gdb.Where("vk_id = ?", 555).Take(&profile).Error)
	require.NotNil(t, profile.FirstName)
	assert.Equal(t, "Anna", *profile.FirstName)
	require.NotNil(t, profile.ProfileURL)
	assert.Equal(t, "https://vk.com/id555", *profile.ProfileURL)

	var user db.User
	require.NoError(t, gdb.Where("vk_user_id = ?", 555).Take(&user).Error)
	require.NotNil(t, user.CurrentProfileID)
	assert.Equal(t, profileID, *user.CurrentProfileID)

	// tokens are stored without the attachment prefix
	var photos []db.Photo
	require.NoError(t, gdb.Where("vk_profiles_id = ?", profileID).Order("id").Find(&photos).Error)
	require.Len(t, photos, 2)
	assert.Equal(t, "555_1", photos[0].PhotoID)
	assert.Equal(t, "555_2", photos[1].PhotoID)
}

func TestIngestIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, gdb, source := setupService(t)
	source.addAccount(555, "Anna", "Ivanova", "photo555_1")

	id1, err := svc.Ingest(ctx, 555)
	require.NoError(t, err)

	source.addAccount(555, "Anya", "Ivanova", "photo555_1")
	id2, err := svc.Ingest(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	var profileCount, photoCount int64
	require.NoError(t, gdb.Model(&db.Profile{}).Count(&profileCount).Error)
	require.NoError(t, gdb.Model(&db.Photo{}).Count(&photoCount).Error)
	assert.Equal(t, int64(1), profileCount)
	assert.Equal(t, int64(1), photoCount)

	var profile db.Profile
	require.NoError(t, gdb.Where("vk_id = ?", 555).Take(&profile).Error)
	assert.Equal(t, "Anya", *profile.FirstName)
}

func TestIngestUnknownAccount(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, err := svc.Ingest(ctx, 999)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

// TestNextCandidateFlow walks the whole ingest → select → decide →
// favorites loop for one user.
func TestNextCandidateFlow(t *testing.T) {
	ctx := context.Background()
	svc, _, source := setupService(t)
	source.addAccount(555, "Anna", "Ivanova", "photo555_1")
	source.addAccount(777, "Pavel", "Volkov")

	_, err := svc.Ingest(ctx, 555)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, 777)
	require.NoError(t, err)

	// the user's own profile is their current pointer, so only Anna is
	// eligible
	candidate, err := svc.NextCandidate(ctx, 777, nil)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, int64(555), candidate.VKID)
	assert.Equal(t, "Anna", candidate.FirstName)
	assert.Equal(t, "https://vk.com/id555", candidate.ProfileURL)
	assert.Equal(t, []string{"photo555_1"}, candidate.Photos)

	// advancing the cursor past her exhausts the pool
	next, err := svc.NextCandidate(ctx, 777, &candidate.ProfileID)
	require.NoError(t, err)
	assert.Nil(t, next)

	result, err := svc.PutDecision(ctx, 777, candidate.VKID, db.StatusLike)
	require.NoError(t, err)
	assert.Equal(t, db.StatusLike, result.Status)

	favorites, err := svc.ListFavorites(ctx, 777)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Anna", favorites[0].FirstName)

	// judged profiles never come back, even without a cursor (the
	// decision moved the pointer, so other profiles may reappear)
	candidate, err = svc.NextCandidate(ctx, 777, nil)
	require.NoError(t, err)
	if candidate != nil {
		assert.NotEqual(t, int64(555), candidate.VKID)
	}
}

func TestNextCandidateUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, err := svc.NextCandidate(ctx, 424242, nil)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestNextCandidateDoesNotMovePointer(t *testing.T) {
	ctx := context.Background()
	svc, gdb, source := setupService(t)
	source.addAccount(555, "Anna", "Ivanova")
	source.addAccount(777, "Pavel", "Volkov")

	ownProfileID, err := svc.Ingest(ctx, 777)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, 555)
	require.NoError(t, err)

	candidate, err := svc.NextCandidate(ctx, 777, nil)
	require.NoError(t, err)
	require.NotNil(t, candidate)

	// selection is read-only: the durable pointer still holds the
	// ingested own profile
	var user db.User
	require.NoError(t, gdb.Where("vk_user_id = ?", 777).Take(&user).Error)
	require.NotNil(t, user.CurrentProfileID)
	assert.Equal(t, ownProfileID, *user.CurrentProfileID)
}

func TestPutDecisionValidation(t *testing.T) {
	ctx := context.Background()
	svc, gdb, source := setupService(t)
	source.addAccount(777, "Pavel", "Volkov")

	_, err := svc.PutDecision(ctx, 0, 555, db.StatusLike)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.PutDecision(ctx, 777, 0, db.StatusLike)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.PutDecision(ctx, 777, 555, db.DecisionStatus("maybe"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	// nothing was recorded
	var count int64
	require.NoError(t, gdb.Model(&db.Decision{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPutDecisionUnknownProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, source := setupService(t)
	source.addAccount(777, "Pavel", "Volkov")

	_, err := svc.Ingest(ctx, 777)
	require.NoError(t, err)

	// 888 was never ingested
	_, err = svc.PutDecision(ctx, 777, 888, db.StatusLike)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestPutDecisionUpsertAndPointer(t *testing.T) {
	ctx := context.Background()
	svc, gdb, source := setupService(t)
	source.addAccount(555, "Anna", "Ivanova")
	source.addAccount(777, "Pavel", "Volkov")

	annaID, err := svc.Ingest(ctx, 555)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, 777)
	require.NoError(t, err)

	_, err = svc.PutDecision(ctx, 777, 555, db.StatusLike)
	require.NoError(t, err)
	_, err = svc.PutDecision(ctx, 777, 555, db.StatusDislike)
	require.NoError(t, err)

	// one row per pair, holding the latest kind
	var rows []db.Decision
	require.NoError(t, gdb.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, db.StatusDislike, rows[0].Status)

	// the pointer followed the judged profile
	var user db.User
	require.NoError(t, gdb.Where("vk_user_id = ?", 777).Take(&user).Error)
	require.NotNil(t, user.CurrentProfileID)
	assert.Equal(t, annaID, *user.CurrentProfileID)
}

func TestPutDecisionLazyUserFallback(t *testing.T) {
	ctx := context.Background()
	svc, gdb, source := setupService(t)
	source.addAccount(555, "Anna", "Ivanova")

	_, err := svc.Ingest(ctx, 555)
	require.NoError(t, err)

	// 333 is unknown to the source, so full ingestion fails and the
	// minimal row fallback kicks in
	result, err := svc.PutDecision(ctx, 333, 555, db.StatusLike)
	require.NoError(t, err)
	assert.Equal(t, db.StatusLike, result.Status)

	var user db.User
	require.NoError(t, gdb.Where("vk_user_id = ?", 333).Take(&user).Error)
}

func TestListFavoritesNeverFailsForUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	favorites, err := svc.ListFavorites(ctx, 424242)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}
