package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mrz1836/postmark"
	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/repository"
)

// emailAPI is the slice of the Postmark client the mailer uses.
// *postmark.Client satisfies it; tests substitute a stub.
type emailAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender delivers alert emails through Postmark's transactional
// API. The recipient is resolved from the product's owner at send time, so
// a product deleted between scheduling and firing degrades to a logged
// no-op rather than an error.
type PostmarkSender struct {
	client      emailAPI
	products    repository.ProductRepository
	senderEmail string
	senderName  string
	logger      *zap.Logger
}

func NewPostmarkSender(
	serverToken, accountToken, senderEmail, senderName string,
	products repository.ProductRepository,
	logger *zap.Logger,
) *PostmarkSender {
	return &PostmarkSender{
		client:      postmark.NewClient(serverToken, accountToken),
		products:    products,
		senderEmail: senderEmail,
		senderName:  senderName,
		logger:      logger,
	}
}

// SendExpiryAlert emails the product owner that the product expires soon.
func (s *PostmarkSender) SendExpiryAlert(ctx context.Context, productID int64, productName string, expiryDate time.Time) error {
	subject := "Medicine Expiry Alert: " + productName
	body := expiryHTML(productName, expiryPhrase(expiryDate))
	return s.send(ctx, productID, subject, body, "expiry")
}

// SendLowStockAlert emails the product owner that stock fell below the
// configured threshold.
func (s *PostmarkSender) SendLowStockAlert(ctx context.Context, productID int64, productName, info string) error {
	subject := "Low Stock Alert: " + productName
	body := stockHTML(productName, info)
	return s.send(ctx, productID, subject, body, "low-stock")
}

// SendOutOfStockAlert emails the product owner that the product ran out.
func (s *PostmarkSender) SendOutOfStockAlert(ctx context.Context, productID int64, productName, info string) error {
	subject := "Out of Stock: " + productName
	body := stockHTML(productName, info)
	return s.send(ctx, productID, subject, body, "out-of-stock")
}

// SendReminder emails a dose reminder for the product.
func (s *PostmarkSender) SendReminder(ctx context.Context, productID int64, productName, info string) error {
	subject := "Medicine Reminder: " + productName
	body := stockHTML(productName, info)
	return s.send(ctx, productID, subject, body, "reminder")
}

func (s *PostmarkSender) send(ctx context.Context, productID int64, subject, htmlBody, tag string) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		s.logger.Warn("cannot resolve recipient, skipping send",
			zap.Int64("product_id", productID), zap.Error(err))
		return nil
	}
	if product.Owner == nil || product.Owner.Email == "" {
		s.logger.Warn("product has no owner email, skipping send",
			zap.Int64("product_id", productID))
		return nil
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail),
		To:       product.Owner.Email,
		Subject:  subject,
		Tag:      tag,
		HTMLBody: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("send %s email for product %d: %w", tag, productID, err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error %d for product %d: %s", resp.ErrorCode, productID, resp.Message)
	}

	s.logger.Info("alert email sent",
		zap.String("tag", tag),
		zap.Int64("product_id", productID),
		zap.String("to", product.Owner.Email),
	)
	return nil
}

// expiryPhrase renders the time left until expiry for the email body,
// e.g. "5 days" or "TODAY".
func expiryPhrase(expiryDate time.Time) string {
	days := int(time.Until(expiryDate).Hours() / 24)
	if days <= 0 {
		return "TODAY"
	}
	return fmt.Sprintf("%d days", days)
}

func expiryHTML(name, expiresIn string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0;">
  <div style="max-width: 600px; margin: 20px auto; background: #fff; padding: 20px; border-radius: 10px; text-align: center;">
    <div style="background: #28a745; color: white; padding: 15px; font-size: 20px; font-weight: bold;">Medicine Expiry Alert</div>
    <div style="padding: 20px; font-size: 16px; color: #333;">
      <p>Hello,</p>
      <p>Your medicine <span style="font-size: 22px; font-weight: bold; color: #d9534f;">%s</span>
         is going to expire in <span style="font-size: 18px; color: #ff9800; font-weight: bold;">%s</span>.</p>
      <p>Please ensure you use it before the expiration date or replace it as needed.</p>
    </div>
    <div style="margin-top: 20px; font-size: 14px; color: #777;"><p>Stay healthy and take care!</p></div>
  </div>
</body>
</html>`, name, expiresIn)
}

func stockHTML(name, info string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0;">
  <div style="max-width: 600px; margin: 20px auto; background: #fff; padding: 20px; border-radius: 10px; text-align: center;">
    <div style="background: #d9534f; color: white; padding: 15px; font-size: 20px; font-weight: bold;">MedTrack Alert</div>
    <div style="padding: 20px; font-size: 16px; color: #333;">
      <p>Hello,</p>
      <p><span style="font-size: 22px; font-weight: bold;">%s</span></p>
      <p>%s</p>
    </div>
    <div style="margin-top: 20px; font-size: 14px; color: #777;"><p>Stay healthy and take care!</p></div>
  </div>
</body>
</html>`, name, info)
}

// compile-time check that PostmarkSender implements Sender
var _ Sender = (*PostmarkSender)(nil)
