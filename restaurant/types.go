// Package restaurant holds the records of the restaurant application and
// the workflows that change them. Every workflow is a sequence of
// single-key collection writes.
package restaurant

// Collection keys.
const (
	KeyMenuItems    = "menu_items"
	KeyOrders       = "user_orders"
	KeyReservations = "user_reservations"
	KeyTables       = "restaurant_tables"
	KeyReviews      = "customer_reviews"
)

// Keys lists every collection the application uses.
var Keys = []string{KeyMenuItems, KeyOrders, KeyReservations, KeyTables, KeyReviews}

// Order types.
const (
	OrderDineIn   = "dine-in"
	OrderDelivery = "delivery"
)

// Order states.
const (
	OrderPending   = "pending"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderServed    = "served"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Payment states.
const (
	PaymentPaid = "paid"
)

// Table states.
const (
	TableAvailable = "Available"
	TableOccupied  = "Occupied"
	TableReserved  = "Reserved"
)

// Reservation states.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

// Review states.
const (
	ReviewApproved = "approved"
	ReviewPending  = "pending"
	ReviewHidden   = "hidden"
)

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

type MenuItem struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Category    string  `json:"category"`
	IsAvailable bool    `json:"is_available"`
}

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId,omitempty"`
	Items           []OrderItem `json:"items"`
	Total           float64     `json:"total"`
	OrderType       string      `json:"orderType"`
	DeliveryAddress string      `json:"deliveryAddress,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Status          string      `json:"status"`
	PaymentStatus   string      `json:"paymentStatus"`
	CreatedAt       string      `json:"createdAt"`
	CustomerName    string      `json:"customerName,omitempty"`
	CustomerPhone   string      `json:"customerPhone,omitempty"`
}

type Reservation struct {
	ID              string `json:"id"`
	TableID         string `json:"tableId"`
	TableName       string `json:"tableName"`
	UserID          string `json:"userId,omitempty"`
	Date            string `json:"date"`
	TimeSlot        string `json:"timeSlot"`
	GuestCount      int    `json:"guestCount"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"specialRequests"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}

type Table struct {
	ID          string `json:"_id"`
	TableNumber string `json:"table_number"`
	Status      string `json:"status"`
	Seats       int    `json:"seats"`
	PositionX   int    `json:"position_x"`
	PositionY   int    `json:"position_y"`
}

type Review struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Rating    int     `json:"rating"`
	Date      string  `json:"date"`
	Comment   string  `json:"comment"`
	Helpful   int     `json:"helpful"`
	IsVisible bool    `json:"isVisible"`
	Status    string  `json:"status"`
	UserID    *string `json:"userId"`
	CreatedAt string  `json:"createdAt"`
}
