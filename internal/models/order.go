package models

// BackendOrder is one entry of the purchase history payload.
type BackendOrder struct {
	PaidDateTime string             `json:"paidDateTime"`
	OrderID      string             `json:"orderId"`
	Amount       int64              `json:"amount"`
	DiscountWay  *DiscountMethod    `json:"discountWay,omitempty"`
	DiscountRate *int64             `json:"discountRate,omitempty"`
	Items        []BackendOrderItem `json:"items"`
}

type BackendOrderItem struct {
	Barcode      string         `json:"barcode"`
	Name         string         `json:"name"`
	Image        string         `json:"image,omitempty"`
	Price        int64          `json:"price"`
	Quantity     int64          `json:"quantity"`
	DiscountWay  DiscountMethod `json:"discountWay"`
	DiscountRate int64          `json:"discountRate"`
}

// AppliedCouponID flags an order paid with a coupon; the real id is not kept.
const AppliedCouponID = "applied"

type OrderRecord struct {
	Date    string             `json:"date"`
	OrderID string             `json:"orderId"`
	Items   []ItemHistoryEntry `json:"items"`
	Amount  int64              `json:"amount"`
	Coupon  OrderCoupon        `json:"coupon"`
}

type OrderCoupon struct {
	ID     *string        `json:"id"`
	Method DiscountMethod `json:"method"`
	Rate   int64          `json:"rate"`
}

// ItemHistoryEntry carries both the discounted total and the total without
// any discount so the view can show the difference.
type ItemHistoryEntry struct {
	Barcode       string         `json:"barcode"`
	Name          string         `json:"name"`
	Image         string         `json:"image,omitempty"`
	Price         int64          `json:"price"`
	Quantity      int64          `json:"quantity"`
	Method        DiscountMethod `json:"method"`
	Rate          int64          `json:"rate"`
	Total         int64          `json:"total"`
	TotalDiscount int64          `json:"totalDiscount"`
	Coupon        ItemCoupon     `json:"coupon"`
}

type ItemCoupon struct {
	TotalDiscount int64 `json:"totalDiscount"`
}
