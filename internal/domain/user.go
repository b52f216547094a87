package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleMember  = "member"
	RolePartner = "partner"
	RoleAdmin   = "admin"
	RoleFinance = "finance"
)

// MaxReferralDepth bounds the ancestor walk. A chain longer than this is
// treated as a data-integrity anomaly and truncated, never followed further.
const MaxReferralDepth = 50

// User is the settlement-facing identity aggregate. ReferredBy is a weak
// back-reference: when the data is healthy the relation forms a forest,
// and the walker enforces that assumption at read time.
type User struct {
	UserID       uuid.UUID  `json:"user_id"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Role         string     `json:"role"`
	ReferralCode string     `json:"referral_code"`
	ReferredBy   *uuid.UUID `json:"referred_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func ValidateCreateUserInput(email, phone string) error {
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		return ErrInvalidInput
	}
	if strings.TrimSpace(phone) == "" {
		return ErrInvalidInput
	}
	return nil
}
