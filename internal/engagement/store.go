// Package engagement applies view, like and bookmark operations to articles.
//
// Views are deduplicated per (article, viewer) through an expiring counter:
// only the first view inside the window increments the article and fans out
// the new count to connected clients. Like/bookmark toggles are serialized
// per article so the flag and its dependent counter always move together.
package engagement

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/pageturn/backend/internal/errors"
	"github.com/pageturn/backend/internal/logger"
	"github.com/pageturn/backend/internal/metrics"
	"github.com/pageturn/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultViewWindow is how long a viewer's view of an article stays counted.
const DefaultViewWindow = time.Hour

// ViewCounter answers "how many times has this key been touched in the
// current window". Implemented by cache.RedisClient in production.
type ViewCounter interface {
	Touch(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Broadcaster pushes updated view counts to connected clients.
// Implemented by websocket.Hub in production.
type Broadcaster interface {
	BroadcastArticleViewed(articleID string, views int64)
}

// Store is the sole mutator of article engagement state.
type Store struct {
	db          *gorm.DB
	counter     ViewCounter
	broadcaster Broadcaster
	window      time.Duration
	locks       keyedMutex
}

// NewStore creates an engagement store. window <= 0 falls back to
// DefaultViewWindow.
func NewStore(db *gorm.DB, counter ViewCounter, broadcaster Broadcaster, window time.Duration) *Store {
	if window <= 0 {
		window = DefaultViewWindow
	}
	return &Store{
		db:          db,
		counter:     counter,
		broadcaster: broadcaster,
		window:      window,
	}
}

func viewKey(articleID, viewerID string) string {
	return fmt.Sprintf("viewed:%s:%s", articleID, viewerID)
}

// RecordView counts a view of articleID by viewerID. Repeat views inside the
// dedup window return the article unchanged and broadcast nothing. A counter
// failure propagates as an infrastructure error: guessing "new view" would
// corrupt the count, guessing "seen" would silently drop views.
func (s *Store) RecordView(ctx context.Context, articleID, viewerID string) (*models.Article, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).Preload("Author").First(&article, "id = ?", articleID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("article")
		}
		return nil, errors.Infrastructure("database", err)
	}

	count, err := s.counter.Touch(ctx, viewKey(articleID, viewerID), s.window)
	if err != nil {
		return nil, errors.Infrastructure("view counter", err)
	}

	if count > 1 {
		// Already counted this viewer recently.
		metrics.Get().ViewsSuppressedTotal.Inc()
		return &article, nil
	}

	res := s.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", articleID).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return nil, errors.Infrastructure("database", res.Error)
	}

	if err := s.db.WithContext(ctx).Preload("Author").First(&article, "id = ?", articleID).Error; err != nil {
		return nil, errors.Infrastructure("database", err)
	}

	metrics.Get().ViewsRecordedTotal.Inc()
	logger.Log.Debug("view recorded",
		logger.WithArticleID(articleID),
		logger.WithUserID(viewerID),
		zap.Int64("views", article.Views),
	)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastArticleViewed(article.ID, article.Views)
	}

	return &article, nil
}

// ToggleLike flips the liked flag and moves the like counter with it, in a
// single UPDATE. Calling it twice restores the original state. Updates for
// the same article are serialized so concurrent toggles cannot leave likes
// inconsistent with the final liked value.
func (s *Store) ToggleLike(ctx context.Context, articleID string) (*models.Article, error) {
	unlock := s.locks.Lock(articleID)
	defer unlock()

	var article models.Article
	if err := s.db.WithContext(ctx).First(&article, "id = ?", articleID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("article")
		}
		return nil, errors.Infrastructure("database", err)
	}

	delta := int64(1)
	if article.Liked {
		delta = -1
	}

	res := s.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", articleID).
		UpdateColumns(map[string]interface{}{
			"liked": !article.Liked,
			"likes": gorm.Expr("likes + ?", delta),
		})
	if res.Error != nil {
		return nil, errors.Infrastructure("database", res.Error)
	}

	metrics.Get().LikeTogglesTotal.Inc()

	if err := s.db.WithContext(ctx).Preload("Author").First(&article, "id = ?", articleID).Error; err != nil {
		return nil, errors.Infrastructure("database", err)
	}
	return &article, nil
}

// ToggleBookmark flips the bookmarked flag. No counter is coupled to it, but
// updates are serialized the same way as likes.
func (s *Store) ToggleBookmark(ctx context.Context, articleID string) (*models.Article, error) {
	unlock := s.locks.Lock(articleID)
	defer unlock()

	var article models.Article
	if err := s.db.WithContext(ctx).First(&article, "id = ?", articleID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("article")
		}
		return nil, errors.Infrastructure("database", err)
	}

	res := s.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", articleID).
		UpdateColumn("bookmarked", !article.Bookmarked)
	if res.Error != nil {
		return nil, errors.Infrastructure("database", res.Error)
	}

	if err := s.db.WithContext(ctx).Preload("Author").First(&article, "id = ?", articleID).Error; err != nil {
		return nil, errors.Infrastructure("database", err)
	}
	return &article, nil
}
