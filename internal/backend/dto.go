package backend

import "github.com/shopspring/decimal"

// Category is one storefront category tile.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	SortOrder   int    `json:"sort_order,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// Product is a catalog product. Legacy products embed their package
// descriptors directly (without a price); newer products expose them through
// the relational packages endpoint instead.
type Product struct {
	ID          string          `json:"id"`
	CategoryID  string          `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	PricePerKg  decimal.Decimal `json:"price_per_kg"`
	ImageURL    string          `json:"image_url,omitempty"`
	Available   bool            `json:"available"`
	Packages    []Package       `json:"packages,omitempty"`
}

// Package is a purchasable weight/unit variant of a product. Price is nil
// for legacy embedded descriptors; callers derive it from the product's
// per-kg price and the package weight.
type Package struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id,omitempty"`
	Name      string           `json:"name,omitempty"`
	Weight    float64          `json:"weight"`
	Unit      string           `json:"unit"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Available bool             `json:"available"`
	SortOrder int              `json:"sort_order,omitempty"`
	Note      string           `json:"note,omitempty"`
	ImageURL  string           `json:"image_url,omitempty"`
}

// District is a delivery district option.
type District struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// PromoResult is the backend's verdict on a promo code.
type PromoResult struct {
	Valid           bool             `json:"valid"`
	DiscountPercent float64          `json:"discount_percent,omitempty"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount,omitempty"`
	Message         string           `json:"message,omitempty"`
}

// OrderItem is one line of an order draft, mirroring the cart line shape the
// backend expects.
type OrderItem struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	PackageID    string          `json:"package_id"`
	PackageName  string          `json:"package_name,omitempty"`
	Weight       float64         `json:"weight"`
	Unit         string          `json:"unit"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	ImageURL     string          `json:"image_url,omitempty"`
}

// Delivery carries the checkout form fields.
type Delivery struct {
	District string `json:"district"`
	TimeSlot string `json:"time_slot"`
	Comment  string `json:"comment,omitempty"`
}

// OrderDraft is assembled only at submission time and never persisted.
type OrderDraft struct {
	Items     []OrderItem     `json:"items"`
	Delivery  Delivery        `json:"delivery"`
	PromoCode string          `json:"promo_code,omitempty"`
	Total     decimal.Decimal `json:"total"`
	UserID    int64           `json:"user_id,omitempty"`
	UserName  string          `json:"user_name,omitempty"`
	InitData  string          `json:"init_data,omitempty"`
}

// OrderConfirmation is the backend's response to a created order.
type OrderConfirmation struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Order is a previously placed order, as listed by the history and admin
// endpoints.
type Order struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"user_id"`
	UserName  string          `json:"user_name,omitempty"`
	Items     []OrderItem     `json:"items"`
	Delivery  Delivery        `json:"delivery"`
	PromoCode string          `json:"promo_code,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// PromoCode is the admin-side promo code resource.
type PromoCode struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	DiscountPercent float64          `json:"discount_percent,omitempty"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount,omitempty"`
	IsActive        bool             `json:"is_active"`
	ExpiresAt       string           `json:"expires_at,omitempty"`
}
