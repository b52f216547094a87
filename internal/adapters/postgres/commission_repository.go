package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
	"gorm.io/gorm"
)

type commissionRepository struct {
	db *gorm.DB
}

func (r *commissionRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Commission, error) {
	var rows []commissionModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("level ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Commission, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainCommission(row))
	}
	return result, nil
}

func (r *commissionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Commission, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&commissionModel{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []commissionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	result := make([]domain.Commission, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainCommission(row))
	}
	return result, int(total), nil
}

func (r *commissionRepository) SumPendingByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).
		Model(&commissionModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Where("status = ?", string(domain.CommissionStatusPending)).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}
