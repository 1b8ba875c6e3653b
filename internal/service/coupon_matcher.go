package service

import "github.com/Cheertaboi/smaphregi/internal/models"

// CouponMatcher answers coupon questions over one session's coupon list.
// Matching is by exact barcode, first match wins in backend arrival order;
// the storewide "*" coupon never matches a product barcode here.
type CouponMatcher struct {
	coupons []models.Coupon
}

func NewCouponMatcher(coupons []models.Coupon) CouponMatcher {
	return CouponMatcher{coupons: coupons}
}

func (m CouponMatcher) HasCoupon(barcode string) bool {
	return m.GetCoupon(barcode) != nil
}

func (m CouponMatcher) GetCoupon(barcode string) *models.Coupon {
	for i := range m.coupons {
		if m.coupons[i].Barcode == barcode {
			c := m.coupons[i]
			return &c
		}
	}
	return nil
}

// StorewideCouponID returns the id of the first storewide coupon, or nil.
func StorewideCouponID(coupons []models.Coupon) *string {
	for _, c := range coupons {
		if c.IsStorewide() {
			id := c.ID
			return &id
		}
	}
	return nil
}
