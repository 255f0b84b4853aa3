package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mrz1836/postmark"
	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/domain"
	"github.com/medtrack/notify/internal/repository"
)

type stubEmailAPI struct {
	sent []postmark.Email
	err  error
	resp postmark.EmailResponse
}

func (s *stubEmailAPI) SendEmail(_ context.Context, email postmark.Email) (postmark.EmailResponse, error) {
	if s.err != nil {
		return postmark.EmailResponse{}, s.err
	}
	s.sent = append(s.sent, email)
	return s.resp, nil
}

func newTestSender(api *stubEmailAPI, repo repository.ProductRepository) *PostmarkSender {
	return &PostmarkSender{
		client:      api,
		products:    repo,
		senderEmail: "alerts@medtrack.local",
		senderName:  "MedTrack",
		logger:      zap.NewNop(),
	}
}

func seedProduct(t *testing.T, repo *repository.MockProductRepository) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:       "Aspirin",
		ExpiryDate: time.Now().AddDate(0, 1, 0),
		Owner:      &domain.Owner{ID: 1, Email: "owner@example.com", FullName: "Jane Roe"},
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSendExpiryAlert(t *testing.T) {
	api := &stubEmailAPI{}
	repo := repository.NewMockProductRepository()
	p := seedProduct(t, repo)

	s := newTestSender(api, repo)
	err := s.SendExpiryAlert(context.Background(), p.ID, p.Name, p.ExpiryDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(api.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(api.sent))
	}
	mail := api.sent[0]
	if mail.To != "owner@example.com" {
		t.Fatalf("recipient = %q", mail.To)
	}
	if !strings.Contains(mail.Subject, "Expiry") {
		t.Fatalf("subject = %q", mail.Subject)
	}
	if !strings.Contains(mail.HTMLBody, "Aspirin") {
		t.Fatal("expected product name in email body")
	}
}

// A product deleted between scheduling and firing degrades to a logged
// no-op, not an error.
func TestSend_MissingProductSkips(t *testing.T) {
	api := &stubEmailAPI{}
	s := newTestSender(api, repository.NewMockProductRepository())

	err := s.SendLowStockAlert(context.Background(), 404, "Gone", "info")
	if err != nil {
		t.Fatalf("expected nil error for missing product, got %v", err)
	}
	if len(api.sent) != 0 {
		t.Fatal("expected no email for missing product")
	}
}

func TestSend_APIErrorPropagates(t *testing.T) {
	api := &stubEmailAPI{err: errors.New("postmark 500")}
	repo := repository.NewMockProductRepository()
	p := seedProduct(t, repo)

	s := newTestSender(api, repo)
	if err := s.SendOutOfStockAlert(context.Background(), p.ID, p.Name, "info"); err == nil {
		t.Fatal("expected error from the mail API")
	}
}

func TestSend_PostmarkErrorCodePropagates(t *testing.T) {
	api := &stubEmailAPI{resp: postmark.EmailResponse{ErrorCode: 406, Message: "inactive recipient"}}
	repo := repository.NewMockProductRepository()
	p := seedProduct(t, repo)

	s := newTestSender(api, repo)
	err := s.SendReminder(context.Background(), p.ID, p.Name, "info")
	if err == nil || !strings.Contains(err.Error(), "406") {
		t.Fatalf("expected postmark error code in error, got %v", err)
	}
}

func TestExpiryPhrase(t *testing.T) {
	if got := expiryPhrase(time.Now().Add(-time.Hour)); got != "TODAY" {
		t.Fatalf("expiryPhrase(past) = %q", got)
	}
	if got := expiryPhrase(time.Now().AddDate(0, 0, 5)); got != "4 days" && got != "5 days" {
		t.Fatalf("expiryPhrase(+5d) = %q", got)
	}
}
