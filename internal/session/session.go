package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Cheertaboi/smaphregi/internal/models"
)

var ErrNotFound = errors.New("session not found")

// Session is the per-shopper state the checkout logic works on. It is
// passed explicitly into every cart and coupon function.
type Session struct {
	ID            string               `json:"id"`
	Locale        string               `json:"locale"`
	IDToken       string               `json:"idToken"`
	Items         []models.ScannedItem `json:"items"`
	Coupons       []models.Coupon      `json:"coupons"`
	CouponsLoaded bool                 `json:"couponsLoaded"`
	OrderID       string               `json:"orderId,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func New(locale, idToken string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Locale:    locale,
		IDToken:   idToken,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store persists sessions. Get returns ErrNotFound for unknown or expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Clone returns a copy that shares no slices with s.
func (s *Session) Clone() *Session {
	c := *s
	c.Items = append([]models.ScannedItem(nil), s.Items...)
	c.Coupons = append([]models.Coupon(nil), s.Coupons...)
	return &c
}
