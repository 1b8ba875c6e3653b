package service

import "github.com/Cheertaboi/smaphregi/internal/models"

// Aggregate folds scans into one line per barcode.
//
// Totals are per unit: TotalDiscount adds Discount(price) once per unit, so a
// percentage floor is applied to each unit and never to the line total. A
// barcode with its own coupon is priced with the coupon's method and rate,
// otherwise each scan is priced with the method and rate it carries. The
// line's Method and Rate show those of its first scan.
//
// When current is non-nil it is folded in as one more scan and its line is
// placed last; all other lines keep the order of their first appearance.
func Aggregate(m CouponMatcher, items []models.ScannedItem, current *models.ScannedItem) []models.AggregatedLineItem {
	scans := items
	if current != nil {
		scans = make([]models.ScannedItem, 0, len(items)+1)
		scans = append(scans, items...)
		scans = append(scans, *current)
	}

	index := make(map[string]int, len(scans))
	lines := make([]models.AggregatedLineItem, 0, len(scans))

	for _, it := range scans {
		method, rate := it.Method, it.Rate
		if c := m.GetCoupon(it.Barcode); c != nil {
			method, rate = c.Method, c.Rate
		}

		i, ok := index[it.Barcode]
		if !ok {
			lines = append(lines, models.AggregatedLineItem{
				Barcode: it.Barcode,
				Image:   it.Image,
				Name:    it.Name,
				Price:   it.Price,
				Method:  method,
				Rate:    rate,
			})
			i = len(lines) - 1
			index[it.Barcode] = i
		}

		line := &lines[i]
		qty := it.Quantity()
		line.Count += qty
		line.Total += it.Price * qty
		line.TotalDiscount += qty * models.Discount(it.Price, method, rate)
	}

	if current == nil {
		return lines
	}

	last := index[current.Barcode]
	moved := lines[last]
	out := append(lines[:last:last], lines[last+1:]...)
	return append(out, moved)
}

// CartTotals sums the aggregated lines.
type CartTotals struct {
	Count         int64 `json:"count"`
	Total         int64 `json:"total"`
	TotalDiscount int64 `json:"totalDiscount"`
}

func Totals(lines []models.AggregatedLineItem) CartTotals {
	var t CartTotals
	for _, l := range lines {
		t.Count += l.Count
		t.Total += l.Total
		t.TotalDiscount += l.TotalDiscount
	}
	return t
}
