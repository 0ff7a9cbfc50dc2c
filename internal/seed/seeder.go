// Package seed fills a development database with realistic data.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/pageturn/backend/internal/logger"
	"github.com/pageturn/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with users, articles and threaded
// comments. All seeded accounts share the password "password123".
func (s *Seeder) SeedDev() error {
	logger.Log.Info("seeding users")
	users, err := s.seedUsers(25)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("seeding articles")
	articles, err := s.seedArticles(users, 60)
	if err != nil {
		return fmt.Errorf("failed to seed articles: %w", err)
	}

	logger.Log.Info("seeding comments")
	if err := s.seedComments(users, articles, 300); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("seeding complete",
		zap.Int("users", len(users)),
		zap.Int("articles", len(articles)),
	)
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hash := string(hashed)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		user := models.User{
			Email:        gofakeit.Email(),
			Name:         gofakeit.Name(),
			Picture:      gofakeit.URL(),
			PasswordHash: &hash,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedArticles(users []models.User, count int) ([]models.Article, error) {
	articles := make([]models.Article, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		article := models.Article{
			AuthorID: author.ID,
			Title:    gofakeit.Sentence(6),
			Content:  gofakeit.Paragraph(4, 6, 12, "\n\n"),
			Views:    int64(rand.Intn(5000)),
			Likes:    int64(rand.Intn(200)),
		}
		if err := s.db.Create(&article).Error; err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func (s *Seeder) seedComments(users []models.User, articles []models.Article, count int) error {
	// Create roots first, then attach a share of replies to existing
	// comments so the forest has depth.
	var created []models.Comment
	for i := 0; i < count; i++ {
		article := articles[rand.Intn(len(articles))]
		author := users[rand.Intn(len(users))]

		comment := models.Comment{
			ArticleID: article.ID,
			AuthorID:  author.ID,
			Content:   gofakeit.Sentence(gofakeit.Number(4, 20)),
			Likes:     int64(rand.Intn(30)),
		}

		if len(created) > 0 && rand.Float64() < 0.4 {
			parent := created[rand.Intn(len(created))]
			// Replies must stay on the parent's article
			comment.ArticleID = parent.ArticleID
			comment.ParentID = &parent.ID
		}

		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
		created = append(created, comment)
	}
	return nil
}
