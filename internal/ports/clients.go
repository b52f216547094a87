package ports

import "context"

// CodeDeliverer hands a confirmation code to the notification rail.
// Delivery guarantees and retries are that collaborator's concern; the
// workflow treats dispatch as fire-and-forget.
type CodeDeliverer interface {
	SendWithdrawalCode(ctx context.Context, destination, code string) error
}
