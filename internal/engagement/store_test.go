package engagement

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	apierrors "github.com/pageturn/backend/internal/errors"
	"github.com/pageturn/backend/internal/logger"
	"github.com/pageturn/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", os.DevNull)
	os.Exit(m.Run())
}

// fakeCounter is an in-memory ViewCounter with manual expiry.
type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: make(map[string]int64)}
}

func (f *fakeCounter) Touch(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) expireAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = make(map[string]int64)
}

// recordingBroadcaster captures broadcast calls.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []models.Article
}

func (r *recordingBroadcaster) BroadcastArticleViewed(articleID string, views int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, models.Article{ID: articleID, Views: views})
}

func (r *recordingBroadcaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func setupStore(t *testing.T) (*Store, *fakeCounter, *recordingBroadcaster, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:engagement_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Article{}))

	// Fresh tables per test; the shared in-memory db survives across tests.
	require.NoError(t, db.Exec("DELETE FROM articles").Error)
	require.NoError(t, db.Exec("DELETE FROM users").Error)

	counter := newFakeCounter()
	broadcaster := &recordingBroadcaster{}
	store := NewStore(db, counter, broadcaster, time.Hour)
	return store, counter, broadcaster, db
}

func createArticle(t *testing.T, db *gorm.DB) *models.Article {
	t.Helper()
	author := models.User{Email: "author@example.com", Name: "Author"}
	require.NoError(t, db.Create(&author).Error)
	article := models.Article{AuthorID: author.ID, Title: "On Reading", Content: "words"}
	require.NoError(t, db.Create(&article).Error)
	return &article
}

func TestRecordViewFirstInWindow(t *testing.T) {
	store, _, broadcaster, db := setupStore(t)
	article := createArticle(t, db)
	ctx := context.Background()

	got, err := store.RecordView(ctx, article.ID, "viewer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
	assert.Equal(t, 1, broadcaster.count())
	assert.Equal(t, int64(1), broadcaster.events[0].Views)

	// Same viewer inside the window: suppressed, no broadcast.
	got, err = store.RecordView(ctx, article.ID, "viewer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
	assert.Equal(t, 1, broadcaster.count())
}

func TestRecordViewDistinctViewers(t *testing.T) {
	store, _, broadcaster, db := setupStore(t)
	article := createArticle(t, db)
	ctx := context.Background()

	_, err := store.RecordView(ctx, article.ID, "viewer-1")
	require.NoError(t, err)
	got, err := store.RecordView(ctx, article.ID, "viewer-2")
	require.NoError(t, err)

	assert.Equal(t, int64(2), got.Views)
	assert.Equal(t, 2, broadcaster.count())
}

func TestRecordViewAfterWindowExpiry(t *testing.T) {
	store, counter, broadcaster, db := setupStore(t)
	article := createArticle(t, db)
	ctx := context.Background()

	_, err := store.RecordView(ctx, article.ID, "viewer-1")
	require.NoError(t, err)

	counter.expireAll()

	got, err := store.RecordView(ctx, article.ID, "viewer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
	assert.Equal(t, 2, broadcaster.count())
}

func TestRecordViewMissingArticle(t *testing.T) {
	store, _, _, _ := setupStore(t)

	_, err := store.RecordView(context.Background(), "nope", "viewer-1")
	require.Error(t, err)
	assert.True(t, apierrors.IsCode(err, apierrors.ErrNotFound))
}

func TestRecordViewCounterFailure(t *testing.T) {
	store, counter, broadcaster, db := setupStore(t)
	article := createArticle(t, db)
	counter.err = errors.New("connection refused")

	_, err := store.RecordView(context.Background(), article.ID, "viewer-1")
	require.Error(t, err)
	assert.True(t, apierrors.IsCode(err, apierrors.ErrServiceUnavail))

	// Nothing committed, nothing broadcast.
	var reloaded models.Article
	require.NoError(t, db.First(&reloaded, "id = ?", article.ID).Error)
	assert.Equal(t, int64(0), reloaded.Views)
	assert.Equal(t, 0, broadcaster.count())
}

func TestToggleLikeIsInvolution(t *testing.T) {
	store, _, _, db := setupStore(t)
	article := createArticle(t, db)
	ctx := context.Background()

	liked, err := store.ToggleLike(ctx, article.ID)
	require.NoError(t, err)
	assert.True(t, liked.Liked)
	assert.Equal(t, int64(1), liked.Likes)

	unliked, err := store.ToggleLike(ctx, article.ID)
	require.NoError(t, err)
	assert.False(t, unliked.Liked)
	assert.Equal(t, int64(0), unliked.Likes)
}

func TestToggleLikeConcurrent(t *testing.T) {
	store, _, _, db := setupStore(t)
	article := createArticle(t, db)
	ctx := context.Background()

	const toggles = 8
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ToggleLike(ctx, article.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Even number of toggles: back to the initial state, and the counter
	// agrees with the flag.
	var reloaded models.Article
	require.NoError(t, db.First(&reloaded, "id = ?", article.ID).Error)
	assert.False(t, reloaded.Liked)
	assert.Equal(t, int64(0), reloaded.Likes)
}

func TestToggleBookmark(t *testing.T) {
	store, _, _, db := setupStore(t)
	article := createArticle(t, db)
	ctx := context.Background()

	got, err := store.ToggleBookmark(ctx, article.ID)
	require.NoError(t, err)
	assert.True(t, got.Bookmarked)
	assert.Equal(t, int64(0), got.Likes)

	got, err = store.ToggleBookmark(ctx, article.ID)
	require.NoError(t, err)
	assert.False(t, got.Bookmarked)
}

func TestToggleMissingArticle(t *testing.T) {
	store, _, _, _ := setupStore(t)

	_, err := store.ToggleLike(context.Background(), "nope")
	assert.True(t, apierrors.IsCode(err, apierrors.ErrNotFound))

	_, err = store.ToggleBookmark(context.Background(), "nope")
	assert.True(t, apierrors.IsCode(err, apierrors.ErrNotFound))
}
