package contracts

type CreateUserRequest struct {
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ReferrerCode string `json:"referrer_code,omitempty"`
}

type CreateOrderRequest struct {
	BuyerID         string `json:"buyer_id"`
	Kind            string `json:"kind"`
	Amount          int64  `json:"amount"`
	PurchasedMonths int    `json:"purchased_months"`
	BonusMonths     int    `json:"bonus_months"`
}

type BankDestinationRequest struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

type RequestWithdrawalRequest struct {
	UserID      string                 `json:"user_id"`
	Amount      int64                  `json:"amount"`
	Destination BankDestinationRequest `json:"destination"`
}

type ConfirmWithdrawalRequest struct {
	Code string `json:"code"`
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason"`
}

type SettleOrderResponse struct {
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	DistributedCount int    `json:"distributed_count"`
	DistributedTotal int64  `json:"distributed_total"`
}

type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type ConfirmWithdrawalResponse struct {
	WithdrawalID string `json:"withdrawal_id"`
	Result       string `json:"result"`
	Status       string `json:"status,omitempty"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}
