// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/miro-4231/BackendSN/internal/embedding"
	"github.com/miro-4231/BackendSN/internal/models"
	"github.com/miro-4231/BackendSN/internal/repository"
	"github.com/miro-4231/BackendSN/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seeder populates the database with fake users, posts, comments, and votes.
// Votes go through the real ledger so scores, balances, and the one-vote
// uniqueness constraint hold in seeded data just like in production.
type Seeder struct {
	db       *gorm.DB
	posts    *service.PostService
	comments *service.CommentService
	votes    *service.VoteService
}

// NewSeeder creates a Seeder over db. The embedding client is disabled, so
// seeded posts stay unembedded unless the server later recomputes them.
func NewSeeder(db *gorm.DB) *Seeder {
	users := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	embedder := embedding.NewClient("")

	return &Seeder{
		db:       db,
		posts:    service.NewPostService(postRepo, embedder),
		comments: service.NewCommentService(commentRepo, postRepo),
		votes:    service.NewVoteService(db, service.NewInterestService(users)),
	}
}

// ClearAll removes all seeded rows, children before parents.
func (s *Seeder) ClearAll() error {
	for _, table := range []string{"votes", "refresh_tokens", "comments", "posts", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	log.Println("Database cleared")
	return nil
}

// Run seeds users, posts, comments, and a mesh of votes.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users, err := s.seedUsers(ctx, opts.NumUsers)
	if err != nil {
		return err
	}
	log.Printf("Created %d users", len(users))

	posts, err := s.seedPosts(ctx, users, opts.NumPosts)
	if err != nil {
		return err
	}
	log.Printf("Created %d posts", len(posts))

	if err := s.seedComments(ctx, users, posts); err != nil {
		return err
	}
	if err := s.seedVotes(ctx, users, posts); err != nil {
		return err
	}
	return nil
}

// seedUsers creates accounts sharing one bcrypt hash; hashing per user makes
// large seeds unbearably slow.
func (s *Seeder) seedUsers(ctx context.Context, n int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user := &models.User{
			Username:         fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:            fmt.Sprintf("user%d.%s", i, gofakeit.Email()),
			Password:         string(hash),
			SuperVoteBalance: models.DefaultSuperVoteBalance,
		}
		if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
			return nil, fmt.Errorf("creating user %d: %w", i, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, n int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[rand.Intn(len(users))]
		post, err := s.posts.Create(ctx, author.ID,
			gofakeit.Sentence(rand.Intn(8)+3),
			gofakeit.Paragraph(rand.Intn(3)+1, 3, 12, "\n"),
		)
		if err != nil {
			return nil, fmt.Errorf("creating post %d: %w", i, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// seedComments adds a few comments per post, some as replies.
func (s *Seeder) seedComments(ctx context.Context, users []*models.User, posts []*models.Post) error {
	total := 0
	for _, post := range posts {
		var prev *models.Comment
		for i := 0; i < rand.Intn(5); i++ {
			author := users[rand.Intn(len(users))]
			var parentID *uint
			if prev != nil && rand.Intn(3) == 0 {
				parentID = &prev.ID
			}
			comment, err := s.comments.Create(ctx, author.ID, post.ID, parentID,
				gofakeit.Sentence(rand.Intn(15)+2))
			if err != nil {
				return fmt.Errorf("creating comment on post %d: %w", post.ID, err)
			}
			prev = comment
			total++
		}
	}
	log.Printf("Created %d comments", total)
	return nil
}

// seedVotes casts random votes through the ledger. Duplicate casts and
// drained premium balances are expected and skipped.
func (s *Seeder) seedVotes(ctx context.Context, users []*models.User, posts []*models.Post) error {
	total := 0
	for _, user := range users {
		for i := 0; i < rand.Intn(len(posts)/2+1); i++ {
			post := posts[rand.Intn(len(posts))]
			direction := 1
			if rand.Intn(5) == 0 {
				direction = -1
			}
			premium := rand.Intn(10) == 0

			_, err := s.votes.Cast(ctx, user.ID, models.TargetPost, post.ID, direction, premium)
			if err != nil {
				var appErr *models.AppError
				if errors.As(err, &appErr) &&
					(appErr.Code == models.CodeConflict || appErr.Code == models.CodeInsufficientBalance) {
					continue
				}
				return fmt.Errorf("casting vote: %w", err)
			}
			total++
		}
	}
	log.Printf("Cast %d votes", total)
	return nil
}
