package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
	"gorm.io/gorm"
)

type entitlementRepository struct {
	db *gorm.DB
}

func (r *entitlementRepository) GetByUserAndKind(ctx context.Context, userID uuid.UUID, kind domain.ProductKind) (*domain.Entitlement, error) {
	var rec entitlementModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("kind = ?", string(kind)).
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := toDomainEntitlement(rec)
	return &out, nil
}

func (r *entitlementRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Entitlement, error) {
	var rows []entitlementModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("kind ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Entitlement, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainEntitlement(row))
	}
	return result, nil
}

func (r *entitlementRepository) HasActive(ctx context.Context, userID uuid.UUID, kind domain.ProductKind, at time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entitlementModel{}).
		Where("user_id = ?", userID).
		Where("kind = ?", string(kind)).
		Where("status = ?", string(domain.EntitlementStatusActive)).
		Where("ends_at > ?", at).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
