package domain

const (
	EventOrderSettled        = "settlement.order.settled"
	EventOrderRefunded       = "settlement.order.refunded"
	EventWithdrawalRequested = "settlement.withdrawal.requested"
	EventWithdrawalApproved  = "settlement.withdrawal.approved"
	EventWithdrawalRejected  = "settlement.withdrawal.rejected"
	EventWithdrawalPaid      = "settlement.withdrawal.paid"
)
