package models

// ScannedItem is one camera scan resolved by the barcode lookup.
// Count zero means a single scan.
type ScannedItem struct {
	Barcode string         `json:"barcode"`
	Image   string         `json:"image"`
	Name    string         `json:"name"`
	Price   int64          `json:"price"`
	Method  DiscountMethod `json:"method"`
	Rate    int64          `json:"rate"`
	Count   int64          `json:"count,omitempty"`
}

// Quantity is the number of units this scan stands for.
func (s ScannedItem) Quantity() int64 {
	if s.Count > 0 {
		return s.Count
	}
	return 1
}

// AggregatedLineItem folds every scan of one barcode. TotalDiscount is the
// post-discount total, computed per unit and summed.
type AggregatedLineItem struct {
	Barcode       string         `json:"barcode"`
	Image         string         `json:"image"`
	Name          string         `json:"name"`
	Count         int64          `json:"count"`
	Price         int64          `json:"price"`
	Total         int64          `json:"total"`
	Method        DiscountMethod `json:"method"`
	Rate          int64          `json:"rate"`
	TotalDiscount int64          `json:"totalDiscount"`
}

// Product is the barcode lookup result.
type Product struct {
	ImageURL     string         `json:"ImageUrl"`
	Name         string         `json:"Name"`
	Price        int64          `json:"Price"`
	DiscountWay  DiscountMethod `json:"discountWay,omitempty"`
	DiscountRate int64          `json:"discountRate,omitempty"`
}

func (p Product) ScannedItem(barcode string) ScannedItem {
	return ScannedItem{
		Barcode: barcode,
		Image:   p.ImageURL,
		Name:    p.Name,
		Price:   p.Price,
		Method:  p.DiscountWay,
		Rate:    p.DiscountRate,
	}
}
