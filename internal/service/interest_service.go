package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/miro-4231/BackendSN/internal/middleware"
	"github.com/miro-4231/BackendSN/internal/models"
	"github.com/miro-4231/BackendSN/internal/repository"

	"github.com/pgvector/pgvector-go"
)

// InterestAlpha is the EMA blend factor: each positive signal pulls the
// stored interest vector 5% of the way toward the content's embedding.
const InterestAlpha = 0.05

// interestUpdateTimeout bounds the background write so a stalled store
// cannot pile up goroutines.
const interestUpdateTimeout = 5 * time.Second

// InterestService maintains each user's interest vector, an exponential
// moving average over the embeddings of content they voted on.
type InterestService struct {
	users repository.UserRepository
	alpha float32
}

// NewInterestService creates a new InterestService.
func NewInterestService(users repository.UserRepository) *InterestService {
	return &InterestService{users: users, alpha: InterestAlpha}
}

// UpdateInterest folds one content embedding into the user's interest vector.
// The first signal seeds the vector verbatim; later ones blend with the EMA.
//
// The read-blend-write is not atomic. Interests are a best-effort ranking
// signal and a lost update under two simultaneous votes is harmless, so
// last-writer-wins is accepted here.
func (s *InterestService) UpdateInterest(ctx context.Context, userID uint, signal []float32) error {
	if len(signal) != models.EmbeddingDim {
		return fmt.Errorf("interest signal has %d dimensions, want %d", len(signal), models.EmbeddingDim)
	}

	current, err := s.users.GetInterests(ctx, userID)
	if err != nil {
		return err
	}

	blended := make([]float32, models.EmbeddingDim)
	if current == nil {
		copy(blended, signal)
	} else {
		old := current.Slice()
		for i := range blended {
			blended[i] = (1-s.alpha)*old[i] + s.alpha*signal[i]
		}
	}

	return s.users.SetInterests(ctx, userID, pgvector.NewVector(blended))
}

// UpdateInterestAsync applies UpdateInterest off the caller's latency path.
// Failures are logged and dropped; a vote never fails because of its
// personalization side effect.
func (s *InterestService) UpdateInterestAsync(userID uint, signal []float32) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), interestUpdateTimeout)
		defer cancel()
		if err := s.UpdateInterest(ctx, userID, signal); err != nil {
			middleware.Logger.Warn("interest update failed",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
		}
	}()
}
