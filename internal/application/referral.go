package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
)

// ancestorChain walks the referredBy back-references from the given user
// upward, nearest referrer first. The walk is a pure read. A cycle or a
// chain past the depth cap is a data-integrity anomaly: it is logged and
// the chain truncated, because a purchase must never be blocked by a
// corrupt referral graph.
func (s *Service) ancestorChain(ctx context.Context, userID uuid.UUID) ([]domain.User, error) {
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load buyer: %w", err)
	}

	visited := map[uuid.UUID]bool{current.UserID: true}
	chain := make([]domain.User, 0, 4)
	for current.ReferredBy != nil {
		if len(chain) >= s.cfg.MaxReferralDepth {
			s.logger.WarnContext(ctx, "referral chain exceeds depth cap; truncating",
				"operation", "ancestor_chain",
				"outcome", "truncated",
				"user_id", userID.String(),
				"depth", len(chain),
			)
			break
		}
		next := *current.ReferredBy
		if visited[next] {
			s.logger.ErrorContext(ctx, "referral cycle detected; truncating chain",
				"operation", "ancestor_chain",
				"outcome", "truncated",
				"user_id", userID.String(),
				"cycle_at", next.String(),
				"depth", len(chain),
			)
			break
		}
		ancestor, err := s.users.GetByID(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("load ancestor %s: %w", next, err)
		}
		visited[next] = true
		chain = append(chain, ancestor)
		current = ancestor
	}
	return chain, nil
}
