package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/miro-4231/BackendSN/internal/middleware"
	"github.com/miro-4231/BackendSN/internal/models"

	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/miro-4231/BackendSN/internal/observability"
)

// VoteService is the voting ledger. Every multi-step mutation runs inside a
// single transaction built from conditional single-statement updates, so
// concurrent casts and retractions serialize in the store without any
// application-level locking.
type VoteService struct {
	db        *gorm.DB
	interests *InterestService
}

// NewVoteService creates a new VoteService.
func NewVoteService(db *gorm.DB, interests *InterestService) *VoteService {
	return &VoteService{db: db, interests: interests}
}

// Cast records one vote by userID on the target and applies its weight to
// the target's denormalized score. Premium votes additionally spend one unit
// of the caster's balance; the spend, the vote row, and the score change
// commit or roll back together.
func (s *VoteService) Cast(ctx context.Context, userID uint, kind models.TargetKind, targetID uint, direction int, premium bool) (*models.Vote, error) {
	if !kind.Valid() {
		return nil, models.NewValidationError("Unknown target kind")
	}
	if direction != 1 && direction != -1 {
		return nil, models.NewValidationError("Direction must be +1 or -1")
	}

	span, ctx := observability.NewSpan(ctx, "ledger.cast")
	defer span.End()
	span.AddAttributes(
		attribute.String("target_kind", string(kind)),
		attribute.Bool("premium", premium),
	)

	embedding, err := s.targetEmbedding(ctx, kind, targetID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	vote := &models.Vote{
		UserID:     userID,
		TargetKind: kind,
		TargetID:   targetID,
		Direction:  direction,
		IsSuper:    premium,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Insert first and let the uniqueness constraint reject
		// duplicates; a pre-read would race with concurrent casts.
		if err := tx.Create(vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.NewConflictError("Already voted")
			}
			return err
		}

		if premium {
			res := tx.Model(&models.User{}).
				Where("id = ? AND super_vote_balance >= ?", userID, 1).
				UpdateColumn("super_vote_balance", gorm.Expr("super_vote_balance - ?", 1))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Balance guard failed; the surrounding transaction
				// rolls the vote row back with it.
				return models.NewInsufficientBalanceError()
			}
		}

		return applyScoreDelta(tx, kind, targetID, vote.Weight())
	})
	if err != nil {
		span.SetError(err)
		return nil, asAppError(err)
	}

	middleware.VotesCast.WithLabelValues(strconv.FormatBool(premium)).Inc()

	// Ledger event for the personalization engine: fire and forget, after
	// commit, never on the vote's latency path.
	if embedding != nil {
		s.interests.UpdateInterestAsync(userID, embedding.Slice())
	}

	return vote, nil
}

// Retract reverses a previously cast vote: the stored weight is subtracted
// from the target's score, a premium spend is refunded, and the vote row is
// deleted, all as one unit.
func (s *VoteService) Retract(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) error {
	if !kind.Valid() {
		return models.NewValidationError("Unknown target kind")
	}

	span, ctx := observability.NewSpan(ctx, "ledger.retract")
	defer span.End()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vote models.Vote
		err := tx.Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, kind, targetID).
			First(&vote).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Vote", targetID)
		}
		if err != nil {
			return err
		}

		if err := applyScoreDelta(tx, kind, targetID, -vote.Weight()); err != nil {
			return err
		}

		if vote.IsSuper {
			// Plain increment, no cap: refunds restore exactly what
			// the cast spent.
			if err := tx.Model(&models.User{}).
				Where("id = ?", userID).
				UpdateColumn("super_vote_balance", gorm.Expr("super_vote_balance + ?", 1)).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&vote).Error
	})
	if err != nil {
		span.SetError(err)
		return asAppError(err)
	}

	middleware.VotesRetracted.Inc()
	return nil
}

// targetEmbedding verifies the target exists (posts, or non-tombstoned
// comments) and returns the content embedding driving personalization, if
// any. Comments carry no embedding.
func (s *VoteService) targetEmbedding(ctx context.Context, kind models.TargetKind, targetID uint) (*pgvector.Vector, error) {
	switch kind {
	case models.TargetPost:
		var post models.Post
		err := s.db.WithContext(ctx).Select("id", "embedding").First(&post, targetID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", targetID)
		}
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return post.Embedding, nil
	default:
		var comment models.Comment
		err := s.db.WithContext(ctx).Select("id", "is_deleted").First(&comment, targetID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && comment.IsDeleted) {
			return nil, models.NewNotFoundError("Comment", targetID)
		}
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return nil, nil
	}
}

// applyScoreDelta adds delta to the target's score with in-statement
// arithmetic, so concurrent votes on the same target never lose an update.
func applyScoreDelta(tx *gorm.DB, kind models.TargetKind, targetID uint, delta int) error {
	var model interface{}
	if kind == models.TargetPost {
		model = &models.Post{}
	} else {
		model = &models.Comment{}
	}
	return tx.Model(model).
		Where("id = ?", targetID).
		UpdateColumn("score", gorm.Expr("score + ?", delta)).Error
}

// asAppError passes AppErrors through and wraps anything else as internal.
func asAppError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}
