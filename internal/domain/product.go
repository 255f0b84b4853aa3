package domain

import (
	"fmt"
	"strings"
	"time"
)

// Owner is the user a health product belongs to. Products are always
// owned; a nil Owner means the record arrived without its user loaded,
// and the safe accessors below substitute placeholders instead of
// letting empty identity fields reach the notification pipeline.
type Owner struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Product is a tracked medicine or health product.
type Product struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	TotalQuantity     float64   `json:"total_quantity"`
	AvailableQuantity float64   `json:"available_quantity"`
	ThresholdQuantity float64   `json:"threshold_quantity"`
	DoseQuantity      float64   `json:"dose_quantity"`
	Unit              string    `json:"unit"`
	ExpiryDate        time.Time `json:"expiry_date"`
	Owner             *Owner    `json:"owner,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// SafeName returns the product name, or a stable placeholder when the
// name is empty so published messages never carry a blank identity field.
func (p *Product) SafeName() string {
	if p == nil {
		return "Unknown Product"
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Medicine #%d", p.ID)
}

// SafeOwnerEmail returns the owner's email or a placeholder address.
func (p *Product) SafeOwnerEmail() string {
	if p == nil || p.Owner == nil {
		return "no-email@medtrack.local"
	}
	if email := strings.TrimSpace(p.Owner.Email); email != "" {
		return email
	}
	return fmt.Sprintf("user%d@medtrack.local", p.Owner.ID)
}

// SafeOwnerName returns the owner's full name or a placeholder.
func (p *Product) SafeOwnerName() string {
	if p == nil || p.Owner == nil {
		return "Unknown User"
	}
	if name := strings.TrimSpace(p.Owner.FullName); name != "" {
		return name
	}
	return fmt.Sprintf("User #%d", p.Owner.ID)
}

// OwnerID returns the owner's ID, or zero when no owner is attached.
func (p *Product) OwnerID() int64 {
	if p == nil || p.Owner == nil {
		return 0
	}
	return p.Owner.ID
}

// CreateProductRequest is the inbound payload for registering a product.
type CreateProductRequest struct {
	UserID            int64     `json:"user_id"`
	Name              string    `json:"name"`
	TotalQuantity     float64   `json:"total_quantity"`
	ThresholdQuantity *float64  `json:"threshold_quantity,omitempty"`
	DoseQuantity      float64   `json:"dose_quantity"`
	Unit              string    `json:"unit"`
	ExpiryDate        time.Time `json:"expiry_date"`
}

func (r *CreateProductRequest) Validate() error {
	if r.UserID == 0 {
		return ErrUserNotFound
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidProductName
	}
	if r.TotalQuantity <= 0 {
		return ErrInvalidQuantity
	}
	if r.DoseQuantity <= 0 || r.DoseQuantity > r.TotalQuantity {
		return ErrInvalidQuantity
	}
	return nil
}
