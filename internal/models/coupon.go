package models

// StorewideBarcode marks a coupon that applies to the whole store.
const StorewideBarcode = "*"

type Coupon struct {
	ID      string         `json:"id"`
	Barcode string         `json:"barcode"`
	Method  DiscountMethod `json:"discountWay"`
	Rate    int64          `json:"discountRate"`
	Comment string         `json:"comment,omitempty"`
	Remarks string         `json:"remarks,omitempty"`
	Image   string         `json:"image,omitempty"`
}

func (c Coupon) IsStorewide() bool {
	return c.Barcode == StorewideBarcode
}
