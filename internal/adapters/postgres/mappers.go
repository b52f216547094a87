package postgres

import (
	"errors"

	"github.com/tradepulse/settlement-service/internal/domain"
	"gorm.io/gorm"
)

func toDomainUser(row userModel) domain.User {
	return domain.User{
		UserID:       row.UserID,
		Email:        row.Email,
		Phone:        row.Phone,
		Role:         row.Role,
		ReferralCode: row.ReferralCode,
		ReferredBy:   row.ReferredBy,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toDomainOrder(row orderModel) domain.Order {
	return domain.Order{
		OrderID:         row.OrderID,
		BuyerID:         row.BuyerID,
		Kind:            domain.ProductKind(row.Kind),
		Amount:          row.Amount,
		Currency:        row.Currency,
		PurchasedMonths: row.PurchasedMonths,
		BonusMonths:     row.BonusMonths,
		Status:          domain.OrderStatus(row.Status),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		PaidAt:          row.PaidAt,
		FailedAt:        row.FailedAt,
		RefundedAt:      row.RefundedAt,
	}
}

func toDomainCommission(row commissionModel) domain.Commission {
	return domain.Commission{
		CommissionID: row.CommissionID,
		UserID:       row.UserID,
		OrderID:      row.OrderID,
		Level:        row.Level,
		Weight:       row.Weight,
		Amount:       row.Amount,
		Status:       domain.CommissionStatus(row.Status),
		CreatedAt:    row.CreatedAt,
		PaidAt:       row.PaidAt,
	}
}

func toDomainEntitlement(row entitlementModel) domain.Entitlement {
	return domain.Entitlement{
		EntitlementID: row.EntitlementID,
		UserID:        row.UserID,
		Kind:          domain.ProductKind(row.Kind),
		Status:        domain.EntitlementStatus(row.Status),
		StartsAt:      row.StartsAt,
		EndsAt:        row.EndsAt,
		PricePaid:     row.PricePaid,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func toDomainWithdrawal(row withdrawalModel) domain.Withdrawal {
	return domain.Withdrawal{
		WithdrawalID: row.WithdrawalID,
		UserID:       row.UserID,
		Amount:       row.Amount,
		Currency:     row.Currency,
		Destination: domain.BankDestination{
			BankName:      row.BankName,
			AccountName:   row.AccountName,
			AccountNumber: row.AccountNumber,
		},
		Status:        domain.WithdrawalStatus(row.Status),
		RejectReason:  row.RejectReason,
		RequestedAt:   row.RequestedAt,
		OTPVerifiedAt: row.OTPVerifiedAt,
		ApprovedAt:    row.ApprovedAt,
		RejectedAt:    row.RejectedAt,
		PaidAt:        row.PaidAt,
		ExpiredAt:     row.ExpiredAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
