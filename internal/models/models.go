package models

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
	ProductDeleted  ProductStatus = "deleted"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidAccepted  BidStatus = "accepted"
	BidRejected  BidStatus = "rejected"
	BidWithdrawn BidStatus = "withdrawn"
)

type ProjectStatus string

const (
	ProjectOpen       ProjectStatus = "open"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

type ItemMode string

const (
	ModePurchase ItemMode = "purchase"
	ModeRental   ItemMode = "rental"
)

type RentalUnit string

const (
	UnitDay   RentalUnit = "day"
	UnitWeek  RentalUnit = "week"
	UnitMonth RentalUnit = "month"
)

type User struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string `gorm:"unique;not null"          json:"username"`
	Email          string `gorm:"unique;not null"          json:"email"`
	PasswordHash   string `gorm:"not null"                 json:"-"`
	Role           string `gorm:"not null"                 json:"role"`
	EmailVerified  bool   `gorm:"default:false"            json:"email_verified"`
	VerifyToken    string `gorm:"index"                    json:"-"`
	OrdersPlaced   uint   `gorm:"default:0"                json:"orders_placed"`
	ProjectsPosted uint   `gorm:"default:0"                json:"projects_posted"`
	CreatedAt      int64  `gorm:"not null"                 json:"created_at"`
}

type FreelancerProfile struct {
	ID         uint    `gorm:"primaryKey"           json:"id"`
	UserID     uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	Skills     string  `json:"skills"`
	HourlyRate int64   `json:"hourly_rate"`
	Rating     float64 `gorm:"default:0"            json:"rating"`
	Available  bool    `gorm:"default:true"         json:"available"`
}

// Prices and rates are integer cents. A rental rate of 0 means the product
// is not offered for that unit.
type Product struct {
	ID          uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID    uint          `gorm:"index;not null"           json:"seller_id"`
	Name        string        `gorm:"not null"                 json:"name"`
	Description string        `json:"description"`
	Category    string        `gorm:"index"                    json:"category"`
	SalePrice   int64         `gorm:"not null"                 json:"sale_price"`
	RateDay     int64         `json:"rate_day"`
	RateWeek    int64         `json:"rate_week"`
	RateMonth   int64         `json:"rate_month"`
	SaleStock   int           `gorm:"not null;default:0;check:sale_stock>=0"   json:"sale_stock"`
	RentalStock int           `gorm:"not null;default:0;check:rental_stock>=0" json:"rental_stock"`
	Status      ProductStatus `gorm:"not null;default:active;index"            json:"status"`
	CreatedAt   int64         `gorm:"not null"                 json:"created_at"`
}

type CartItem struct {
	ID             uint       `gorm:"primaryKey"                 json:"id"`
	UserID         uint       `gorm:"index;not null"             json:"user_id"`
	ProductID      uint       `gorm:"not null"                   json:"product_id"`
	Quantity       uint       `gorm:"default:1;check:quantity>0" json:"quantity"`
	Mode           ItemMode   `gorm:"not null;default:purchase"  json:"mode"`
	RentalDuration int        `json:"rental_duration"`
	RentalUnit     RentalUnit `json:"rental_unit"`
}

// Cart is the persisted one-to-one totals row for a user. Items live in
// CartItem; totals are recomputed from the items before every response.
type Cart struct {
	ID        uint  `gorm:"primaryKey"           json:"id"`
	UserID    uint  `gorm:"uniqueIndex;not null" json:"user_id"`
	Subtotal  int64 `json:"subtotal"`
	Tax       int64 `json:"tax"`
	Shipping  int64 `json:"shipping"`
	Discount  int64 `json:"discount"`
	Total     int64 `json:"total"`
	UpdatedAt int64 `json:"updated_at"`
}

type Coupon struct {
	ID     uint   `gorm:"primaryKey"      json:"id"`
	Code   string `gorm:"unique;not null" json:"code"`
	Amount int64  `gorm:"not null"        json:"amount"`
	Active bool   `gorm:"default:true"    json:"active"`
}

// CartCoupon snapshots the coupon amount at apply time.
type CartCoupon struct {
	ID     uint   `gorm:"primaryKey"     json:"id"`
	UserID uint   `gorm:"index;not null" json:"user_id"`
	Code   string `gorm:"not null"       json:"code"`
	Amount int64  `gorm:"not null"       json:"amount"`
}

type Order struct {
	ID              uint          `gorm:"primaryKey"      json:"id"`
	OrderNumber     string        `gorm:"unique;not null" json:"order_number"`
	UserID          uint          `gorm:"index;not null"  json:"user_id"`
	SellerID        uint          `gorm:"index;not null"  json:"seller_id"`
	Type            ItemMode      `gorm:"not null"        json:"type"`
	Status          OrderStatus   `gorm:"not null"        json:"status"`
	PaymentStatus   PaymentStatus `gorm:"not null"        json:"payment_status"`
	PaymentMethod   string        `json:"payment_method"`
	ShippingAddress string        `json:"shipping_address"`
	BillingAddress  string        `json:"billing_address"`
	Subtotal        int64         `gorm:"not null" json:"subtotal"`
	Tax             int64         `gorm:"not null" json:"tax"`
	Shipping        int64         `gorm:"not null" json:"shipping"`
	Discount        int64         `gorm:"not null" json:"discount"`
	Total           int64         `gorm:"not null" json:"total"`
	CreatedAt       int64         `gorm:"not null" json:"created_at"`
	Items           []OrderItem   `json:"items"`
}

// OrderItem is an immutable snapshot taken at order creation; later product
// changes must not affect it.
type OrderItem struct {
	ID             uint       `gorm:"primaryKey"                 json:"id"`
	OrderID        uint       `gorm:"index;not null"             json:"order_id"`
	ProductID      uint       `gorm:"not null"                   json:"product_id"`
	ProductName    string     `gorm:"not null"                   json:"product_name"`
	UnitPrice      int64      `gorm:"not null"                   json:"unit_price"`
	Quantity       uint       `gorm:"default:1;check:quantity>0" json:"quantity"`
	Mode           ItemMode   `gorm:"not null"                   json:"mode"`
	RentalDuration int        `json:"rental_duration"`
	RentalUnit     RentalUnit `json:"rental_unit"`
	LineTotal      int64      `gorm:"not null"                   json:"line_total"`
}

type Project struct {
	ID                   uint          `gorm:"primaryKey"     json:"id"`
	ClientID             uint          `gorm:"index;not null" json:"client_id"`
	Title                string        `gorm:"not null"       json:"title"`
	Description          string        `json:"description"`
	Budget               int64         `json:"budget"`
	Status               ProjectStatus `gorm:"not null;default:open" json:"status"`
	SelectedFreelancerID *uint         `json:"selected_freelancer_id"`
	AcceptedBidID        *uint         `json:"accepted_bid_id"`
	CreatedAt            int64         `gorm:"not null"       json:"created_at"`
}

type Bid struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProjectID    uint      `gorm:"not null;uniqueIndex:idx_project_freelancer" json:"project_id"`
	FreelancerID uint      `gorm:"not null;uniqueIndex:idx_project_freelancer" json:"freelancer_id"`
	Amount       int64     `gorm:"not null" json:"amount"`
	DeliveryDays int       `gorm:"not null" json:"delivery_days"`
	Proposal     string    `json:"proposal"`
	Status       BidStatus `gorm:"not null;default:pending" json:"status"`
	CreatedAt    int64     `gorm:"not null" json:"created_at"`
	DecidedAt    int64     `json:"decided_at"`
}

type Message struct {
	ID          uint   `gorm:"primaryKey"     json:"id"`
	SenderID    uint   `gorm:"index;not null" json:"sender_id"`
	RecipientID uint   `gorm:"index;not null" json:"recipient_id"`
	ProjectID   *uint  `gorm:"index"          json:"project_id"`
	Body        string `gorm:"not null"       json:"body"`
	Attachment  string `json:"attachment"`
	Read        bool   `gorm:"default:false;index" json:"read"`
	CreatedAt   int64  `gorm:"not null"       json:"created_at"`
}

type Contact struct {
	ID        uint   `gorm:"primaryKey"     json:"id"`
	Name      string `gorm:"not null"       json:"name"`
	Email     string `gorm:"index;not null" json:"email"`
	Subject   string `json:"subject"`
	Message   string `gorm:"not null"       json:"message"`
	CreatedAt int64  `gorm:"not null"       json:"created_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
