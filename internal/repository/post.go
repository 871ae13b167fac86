package repository

import (
	"context"

	"github.com/miro-4231/BackendSN/internal/models"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Hot-rank calibration constants. The score term is log-scaled so that the
// recency term gains one "decade" of votes every DECAY seconds past EPOCH0.
const (
	HotRankEpoch0 = 1334845200
	HotRankDecay  = 45000
)

// hotRankExpr is the SQL ordering expression for the hot feed. The arithmetic
// runs in the store so pagination stays consistent across requests.
const hotRankExpr = "LOG(GREATEST(ABS(score), 1)) + (EXTRACT(EPOCH FROM created_at) - 1334845200) / 45000.0 DESC"

// PostRepository defines interface for post operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Latest(ctx context.Context) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	SetEmbedding(ctx context.Context, id uint, vec pgvector.Vector) error
	AddCommentsCount(ctx context.Context, id uint, delta int) error
	ListHot(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListNearest(ctx context.Context, vec pgvector.Vector, excludeID uint, limit, offset int) ([]*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Latest(ctx context.Context) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").Order("created_at DESC").First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
}

func (r *postRepository) SetEmbedding(ctx context.Context, id uint, vec pgvector.Vector) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("embedding", vec).Error
}

// AddCommentsCount adjusts the denormalized comment counter with in-statement
// arithmetic so concurrent comment writes never lose an update.
func (r *postRepository) AddCommentsCount(ctx context.Context, id uint, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("comments_count", gorm.Expr("comments_count + ?", delta)).Error
}

func (r *postRepository) ListHot(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Order(hotRankExpr).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// ListNearest orders by cosine distance to vec, ascending. Posts without an
// embedding are excluded rather than sorted to the end. excludeID drops one
// post from the results (the anchor of a similarity query); zero disables it.
func (r *postRepository) ListNearest(ctx context.Context, vec pgvector.Vector, excludeID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	q := r.db.WithContext(ctx).
		Preload("User").
		Where("embedding IS NOT NULL")
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.
		Order(clause.OrderBy{Expression: gorm.Expr("embedding <=> ?", vec)}).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}
