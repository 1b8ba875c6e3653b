package service

import "github.com/Cheertaboi/smaphregi/internal/models"

// Reconstruct turns the backend purchase history into display records. The
// order amount is taken as-is; item totals are recomputed per unit both with
// the recorded discount and with none.
func Reconstruct(raw []models.BackendOrder) []models.OrderRecord {
	out := make([]models.OrderRecord, 0, len(raw))
	for _, o := range raw {
		method := models.DiscountNone
		if o.DiscountWay != nil {
			method = *o.DiscountWay
		}
		var rate int64
		if o.DiscountRate != nil {
			rate = *o.DiscountRate
		}

		rec := models.OrderRecord{
			Date:    o.PaidDateTime,
			OrderID: o.OrderID,
			Amount:  o.Amount,
			Items:   make([]models.ItemHistoryEntry, 0, len(o.Items)),
			Coupon:  models.OrderCoupon{Method: method, Rate: rate},
		}
		if method != models.DiscountNone {
			id := models.AppliedCouponID
			rec.Coupon.ID = &id
		}

		for _, it := range o.Items {
			rec.Items = append(rec.Items, models.ItemHistoryEntry{
				Barcode:       it.Barcode,
				Name:          it.Name,
				Image:         it.Image,
				Price:         it.Price,
				Quantity:      it.Quantity,
				Method:        it.DiscountWay,
				Rate:          it.DiscountRate,
				Total:         it.Price * it.Quantity,
				TotalDiscount: it.Quantity * models.Discount(it.Price, it.DiscountWay, it.DiscountRate),
				Coupon: models.ItemCoupon{
					TotalDiscount: it.Quantity * models.Discount(it.Price, models.DiscountNone, 0),
				},
			})
		}
		out = append(out, rec)
	}
	return out
}
