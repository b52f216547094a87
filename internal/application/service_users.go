package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
)

type CreateUserInput struct {
	Email        string
	Phone        string
	ReferrerCode string
}

// CreateUser registers a user and, when a referrer code is supplied, wires
// the referredBy back-reference. A new user cannot form a cycle at create
// time, so write-time graph validation reduces to resolving the code.
func (s *Service) CreateUser(ctx context.Context, actor Actor, input CreateUserInput) (domain.User, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	if err := domain.ValidateCreateUserInput(input.Email, input.Phone); err != nil {
		return domain.User{}, err
	}

	var referredBy *uuid.UUID
	if code := strings.TrimSpace(input.ReferrerCode); code != "" {
		referrer, err := s.users.GetByReferralCode(ctx, strings.ToUpper(code))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.User{}, domain.ErrReferralCodeUnknown
			}
			return domain.User{}, fmt.Errorf("resolve referrer: %w", err)
		}
		referredBy = &referrer.UserID
	}

	now := s.nowFn()
	userID := uuid.New()
	user := domain.User{
		UserID:       userID,
		Email:        input.Email,
		Phone:        input.Phone,
		Role:         domain.RoleMember,
		ReferralCode: newReferralCode(userID.String()),
		ReferredBy:   referredBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	s.logger.InfoContext(ctx, "user created",
		"operation", "create_user",
		"outcome", "success",
		"user_id", created.UserID.String(),
		"referred", referredBy != nil,
	)
	return created, nil
}

func (s *Service) GetUser(ctx context.Context, actor Actor, userID uuid.UUID) (domain.User, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	if !actor.privileged() && actor.SubjectID != userID.String() {
		return domain.User{}, domain.ErrForbidden
	}
	return s.users.GetByID(ctx, userID)
}
