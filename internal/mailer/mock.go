package mailer

import (
	"context"
	"sync"
	"time"
)

// SentMail captures one delivery recorded by MockSender.
type SentMail struct {
	Kind        string
	ProductID   int64
	ProductName string
	ExpiryDate  time.Time
	Info        string
}

// MockSender is a hand-written, in-memory Sender used in unit tests.
// No mock-generation library needed.
type MockSender struct {
	mu   sync.Mutex
	sent []SentMail

	// Optional error overrides, set in tests to simulate failure paths.
	ExpiryErr     error
	LowStockErr   error
	OutOfStockErr error
	ReminderErr   error

	// Optional hook invoked on every send, before the error override is
	// consulted. Used to coordinate with the scheduler worker in tests.
	OnSend func(m SentMail)
}

func NewMockSender() *MockSender { return &MockSender{} }

func (s *MockSender) SendExpiryAlert(_ context.Context, productID int64, productName string, expiryDate time.Time) error {
	return s.record(SentMail{Kind: "expiry", ProductID: productID, ProductName: productName, ExpiryDate: expiryDate}, s.ExpiryErr)
}

func (s *MockSender) SendLowStockAlert(_ context.Context, productID int64, productName, info string) error {
	return s.record(SentMail{Kind: "low-stock", ProductID: productID, ProductName: productName, Info: info}, s.LowStockErr)
}

func (s *MockSender) SendOutOfStockAlert(_ context.Context, productID int64, productName, info string) error {
	return s.record(SentMail{Kind: "out-of-stock", ProductID: productID, ProductName: productName, Info: info}, s.OutOfStockErr)
}

func (s *MockSender) SendReminder(_ context.Context, productID int64, productName, info string) error {
	return s.record(SentMail{Kind: "reminder", ProductID: productID, ProductName: productName, Info: info}, s.ReminderErr)
}

func (s *MockSender) record(m SentMail, errOverride error) error {
	if s.OnSend != nil {
		s.OnSend(m)
	}
	if errOverride != nil {
		return errOverride
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return nil
}

// Sent returns a snapshot of all successfully recorded sends.
func (s *MockSender) Sent() []SentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMail, len(s.sent))
	copy(out, s.sent)
	return out
}

var _ Sender = (*MockSender)(nil)
