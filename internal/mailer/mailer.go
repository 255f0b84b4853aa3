package mailer

import (
	"context"
	"time"
)

// Sender abstracts delivery of alert emails. The expiry scheduler and the
// notification consumer are its only callers; both treat a send failure as
// isolated to that one notification.
//
// Mocking this interface in tests gives full control over delivery
// behaviour without making real API calls.
type Sender interface {
	SendExpiryAlert(ctx context.Context, productID int64, productName string, expiryDate time.Time) error
	SendLowStockAlert(ctx context.Context, productID int64, productName, info string) error
	SendOutOfStockAlert(ctx context.Context, productID int64, productName, info string) error
	SendReminder(ctx context.Context, productID int64, productName, info string) error
}
