package domain_test

import (
	"testing"
	"time"

	"github.com/medtrack/notify/internal/domain"
)

func TestProduct_SafeAccessors(t *testing.T) {
	p := &domain.Product{
		ID:   7,
		Name: "Vitamin D",
		Owner: &domain.Owner{
			ID:       3,
			Email:    "owner@example.com",
			FullName: "Jane Roe",
		},
	}

	if got := p.SafeName(); got != "Vitamin D" {
		t.Fatalf("SafeName = %q", got)
	}
	if got := p.SafeOwnerEmail(); got != "owner@example.com" {
		t.Fatalf("SafeOwnerEmail = %q", got)
	}
	if got := p.SafeOwnerName(); got != "Jane Roe" {
		t.Fatalf("SafeOwnerName = %q", got)
	}
}

// TestProduct_SafePlaceholders verifies that absent identity data is
// replaced with stable placeholders instead of empty strings.
func TestProduct_SafePlaceholders(t *testing.T) {
	p := &domain.Product{ID: 42}

	if got := p.SafeName(); got != "Medicine #42" {
		t.Fatalf("SafeName = %q", got)
	}
	if got := p.SafeOwnerEmail(); got != "no-email@medtrack.local" {
		t.Fatalf("SafeOwnerEmail = %q", got)
	}
	if got := p.SafeOwnerName(); got != "Unknown User" {
		t.Fatalf("SafeOwnerName = %q", got)
	}
	if got := p.OwnerID(); got != 0 {
		t.Fatalf("OwnerID = %d", got)
	}

	var nilProduct *domain.Product
	if got := nilProduct.SafeName(); got != "Unknown Product" {
		t.Fatalf("nil SafeName = %q", got)
	}

	blankOwner := &domain.Product{ID: 1, Owner: &domain.Owner{ID: 9}}
	if got := blankOwner.SafeOwnerEmail(); got != "user9@medtrack.local" {
		t.Fatalf("blank owner SafeOwnerEmail = %q", got)
	}
	if got := blankOwner.SafeOwnerName(); got != "User #9" {
		t.Fatalf("blank owner SafeOwnerName = %q", got)
	}
}

func TestCreateProductRequest_Validate(t *testing.T) {
	valid := domain.CreateProductRequest{
		UserID:        1,
		Name:          "Ibuprofen",
		TotalQuantity: 30,
		DoseQuantity:  1,
		Unit:          "tablets",
		ExpiryDate:    time.Now().AddDate(1, 0, 0),
	}

	tests := []struct {
		name   string
		mutate func(r *domain.CreateProductRequest)
		want   error
	}{
		{"valid", func(r *domain.CreateProductRequest) {}, nil},
		{"missing user", func(r *domain.CreateProductRequest) { r.UserID = 0 }, domain.ErrUserNotFound},
		{"blank name", func(r *domain.CreateProductRequest) { r.Name = "   " }, domain.ErrInvalidProductName},
		{"zero total", func(r *domain.CreateProductRequest) { r.TotalQuantity = 0 }, domain.ErrInvalidQuantity},
		{"zero dose", func(r *domain.CreateProductRequest) { r.DoseQuantity = 0 }, domain.ErrInvalidQuantity},
		{"dose exceeds total", func(r *domain.CreateProductRequest) { r.DoseQuantity = 31 }, domain.ErrInvalidQuantity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			if err := req.Validate(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
