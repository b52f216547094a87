package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
	"github.com/tradepulse/settlement-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type withdrawalRepository struct {
	db *gorm.DB
}

// CreateWithBalanceCheck locks the user row so concurrent requests for the
// same user serialize. The balance and the single-open-request guard are
// re-verified under that lock; two simultaneous requests can never both
// reserve the same pending commissions.
func (r *withdrawalRepository) CreateWithBalanceCheck(ctx context.Context, params ports.WithdrawalCreateParams) (domain.Withdrawal, error) {
	w := params.Withdrawal
	var result domain.Withdrawal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user userModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", w.UserID).
			Take(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		var openCount int64
		if err := tx.Model(&withdrawalModel{}).
			Where("user_id = ?", w.UserID).
			Where("status IN ?", openStatusStrings()).
			Count(&openCount).Error; err != nil {
			return err
		}
		if openCount > 0 {
			return domain.ErrWithdrawalOpen
		}

		var balance int64
		if err := tx.Model(&commissionModel{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("user_id = ?", w.UserID).
			Where("status = ?", string(domain.CommissionStatusPending)).
			Scan(&balance).Error; err != nil {
			return err
		}
		if balance < w.Amount {
			return domain.ErrInsufficientFunds
		}

		rec := withdrawalModel{
			WithdrawalID:  w.WithdrawalID,
			UserID:        w.UserID,
			Amount:        w.Amount,
			Currency:      w.Currency,
			BankName:      w.Destination.BankName,
			AccountName:   w.Destination.AccountName,
			AccountNumber: w.Destination.AccountNumber,
			Status:        string(w.Status),
			RejectReason:  w.RejectReason,
			RequestedAt:   w.RequestedAt,
			UpdatedAt:     w.UpdatedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if err := enqueueOutbox(tx, params.OutboxEvent); err != nil {
			return err
		}
		result = toDomainWithdrawal(rec)
		return nil
	})
	if err != nil {
		return domain.Withdrawal{}, err
	}
	return result, nil
}

func (r *withdrawalRepository) GetByID(ctx context.Context, withdrawalID uuid.UUID) (domain.Withdrawal, error) {
	var rec withdrawalModel
	if err := r.db.WithContext(ctx).Where("withdrawal_id = ?", withdrawalID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Withdrawal{}, domain.ErrNotFound
		}
		return domain.Withdrawal{}, err
	}
	return toDomainWithdrawal(rec), nil
}

func (r *withdrawalRepository) HasOpen(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&withdrawalModel{}).
		Where("user_id = ?", userID).
		Where("status IN ?", openStatusStrings()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *withdrawalRepository) Transition(ctx context.Context, withdrawalID uuid.UUID, to domain.WithdrawalStatus, at time.Time, reason string, outboxEvent *ports.OutboxEvent) (domain.Withdrawal, error) {
	var result domain.Withdrawal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec withdrawalModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("withdrawal_id = ?", withdrawalID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if !domain.CanTransitionWithdrawal(domain.WithdrawalStatus(rec.Status), to) {
			return domain.ErrIllegalTransition
		}

		updates := map[string]any{
			"status":     string(to),
			"updated_at": at,
		}
		if col := transitionStampColumn(to); col != "" {
			updates[col] = at
		}
		if to == domain.WithdrawalStatusRejected {
			updates["reject_reason"] = reason
			rec.RejectReason = reason
		}
		if err := tx.Model(&withdrawalModel{}).
			Where("withdrawal_id = ?", withdrawalID).
			Updates(updates).Error; err != nil {
			return err
		}
		if outboxEvent != nil {
			if err := enqueueOutbox(tx, *outboxEvent); err != nil {
				return err
			}
		}
		applyTransitionStamp(&rec, to, at)
		rec.Status = string(to)
		rec.UpdatedAt = at
		result = toDomainWithdrawal(rec)
		return nil
	})
	if err != nil {
		return domain.Withdrawal{}, err
	}
	return result, nil
}

// Confirm advances requested->pending_review in one update so a withdrawal
// can never be stranded at otp_verified by a partial write. The intermediate
// hop still has to be legal in the transition table.
func (r *withdrawalRepository) Confirm(ctx context.Context, withdrawalID uuid.UUID, at time.Time) (domain.Withdrawal, error) {
	var result domain.Withdrawal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec withdrawalModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("withdrawal_id = ?", withdrawalID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		from := domain.WithdrawalStatus(rec.Status)
		if !domain.CanTransitionWithdrawal(from, domain.WithdrawalStatusOTPVerified) ||
			!domain.CanTransitionWithdrawal(domain.WithdrawalStatusOTPVerified, domain.WithdrawalStatusPendingReview) {
			return domain.ErrIllegalTransition
		}

		if err := tx.Model(&withdrawalModel{}).
			Where("withdrawal_id = ?", withdrawalID).
			Updates(map[string]any{
				"status":          string(domain.WithdrawalStatusPendingReview),
				"otp_verified_at": at,
				"updated_at":      at,
			}).Error; err != nil {
			return err
		}

		rec.Status = string(domain.WithdrawalStatusPendingReview)
		verifiedAt := at
		rec.OTPVerifiedAt = &verifiedAt
		rec.UpdatedAt = at
		result = toDomainWithdrawal(rec)
		return nil
	})
	if err != nil {
		return domain.Withdrawal{}, err
	}
	return result, nil
}

// MarkPaid flips the withdrawal approved->paid and, under the same user row
// lock used at request time, flips every pending commission of that user to
// paid. The flip covers the whole pending ledger, not only the withdrawn
// amount.
func (r *withdrawalRepository) MarkPaid(ctx context.Context, withdrawalID uuid.UUID, at time.Time, outboxEvent ports.OutboxEvent) (domain.Withdrawal, int, int64, error) {
	var (
		result       domain.Withdrawal
		flippedCount int
		flippedTotal int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec withdrawalModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("withdrawal_id = ?", withdrawalID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if !domain.CanTransitionWithdrawal(domain.WithdrawalStatus(rec.Status), domain.WithdrawalStatusPaid) {
			return domain.ErrIllegalTransition
		}

		var user userModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", rec.UserID).
			Take(&user).Error; err != nil {
			return err
		}

		if err := tx.Model(&commissionModel{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("user_id = ?", rec.UserID).
			Where("status = ?", string(domain.CommissionStatusPending)).
			Scan(&flippedTotal).Error; err != nil {
			return err
		}
		res := tx.Model(&commissionModel{}).
			Where("user_id = ?", rec.UserID).
			Where("status = ?", string(domain.CommissionStatusPending)).
			Updates(map[string]any{
				"status":  string(domain.CommissionStatusPaid),
				"paid_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		flippedCount = int(res.RowsAffected)

		if err := tx.Model(&withdrawalModel{}).
			Where("withdrawal_id = ?", withdrawalID).
			Updates(map[string]any{
				"status":     string(domain.WithdrawalStatusPaid),
				"paid_at":    at,
				"updated_at": at,
			}).Error; err != nil {
			return err
		}
		if err := enqueueOutbox(tx, outboxEvent); err != nil {
			return err
		}

		rec.Status = string(domain.WithdrawalStatusPaid)
		paidAt := at
		rec.PaidAt = &paidAt
		rec.UpdatedAt = at
		result = toDomainWithdrawal(rec)
		return nil
	})
	if err != nil {
		return domain.Withdrawal{}, 0, 0, err
	}
	return result, flippedCount, flippedTotal, nil
}

func (r *withdrawalRepository) List(ctx context.Context, query ports.WithdrawalQuery) ([]domain.Withdrawal, int, error) {
	base := r.db.WithContext(ctx).Model(&withdrawalModel{})
	if query.UserID != uuid.Nil {
		base = base.Where("user_id = ?", query.UserID)
	}
	if query.Status != "" {
		base = base.Where("status = ?", string(query.Status))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []withdrawalModel
	if err := base.Session(&gorm.Session{}).
		Order("requested_at DESC").
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	result := make([]domain.Withdrawal, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainWithdrawal(row))
	}
	return result, int(total), nil
}

func (r *withdrawalRepository) ExpireStale(ctx context.Context, cutoff, at time.Time) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&withdrawalModel{}).
		Where("status = ?", string(domain.WithdrawalStatusRequested)).
		Where("requested_at < ?", cutoff).
		Updates(map[string]any{
			"status":     string(domain.WithdrawalStatusExpired),
			"expired_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func openStatusStrings() []string {
	statuses := domain.OpenWithdrawalStatuses()
	open := make([]string, 0, len(statuses))
	for _, s := range statuses {
		open = append(open, string(s))
	}
	return open
}

func transitionStampColumn(to domain.WithdrawalStatus) string {
	switch to {
	case domain.WithdrawalStatusOTPVerified:
		return "otp_verified_at"
	case domain.WithdrawalStatusApproved:
		return "approved_at"
	case domain.WithdrawalStatusRejected:
		return "rejected_at"
	case domain.WithdrawalStatusPaid:
		return "paid_at"
	case domain.WithdrawalStatusExpired:
		return "expired_at"
	}
	return ""
}

func applyTransitionStamp(rec *withdrawalModel, to domain.WithdrawalStatus, at time.Time) {
	stamp := at
	switch to {
	case domain.WithdrawalStatusOTPVerified:
		rec.OTPVerifiedAt = &stamp
	case domain.WithdrawalStatusApproved:
		rec.ApprovedAt = &stamp
	case domain.WithdrawalStatusRejected:
		rec.RejectedAt = &stamp
	case domain.WithdrawalStatusPaid:
		rec.PaidAt = &stamp
	case domain.WithdrawalStatusExpired:
		rec.ExpiredAt = &stamp
	}
}
