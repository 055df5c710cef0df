package restaurant

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/yndd/ndd-runtime/pkg/logging"

	"github.com/yndd/dinesync/binding"
	"github.com/yndd/dinesync/collection"
	"github.com/yndd/dinesync/manager"
)

const (
	taxPercent        = 5
	deliveryFee       = 40
	freeDeliveryAbove = 500
)

var (
	ErrInvalidMenuItem    = errors.New("invalid menu item")
	ErrUnknownMenuItem    = errors.New("unknown menu item")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrInvalidOrderType   = errors.New("invalid order type")
	ErrMissingAddress     = errors.New("delivery address required")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrUnknownOrder       = errors.New("unknown order")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrInvalidReservation = errors.New("invalid reservation")
	ErrUnknownReservation = errors.New("unknown reservation")
	ErrUnknownTable       = errors.New("unknown table")
	ErrTableUnavailable   = errors.New("table not available")
	ErrInvalidTableStatus = errors.New("invalid table status")
	ErrInvalidReview      = errors.New("invalid review")
	ErrUnknownReview      = errors.New("unknown review")
)

var orderStates = map[string]bool{
	OrderPending: true, OrderPreparing: true, OrderReady: true,
	OrderServed: true, OrderDelivered: true, OrderCancelled: true,
}

var tableStates = map[string]bool{
	TableAvailable: true, TableOccupied: true, TableReserved: true,
}

type Config struct {
	// Seed starts empty collections from the fixtures instead of nothing.
	Seed bool
	// Pay settles an order total. nil accepts every payment.
	Pay func(total float64, method string) error
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service runs the restaurant workflows on top of a manager. Validation
// errors are returned; storage and delivery problems are not, they are
// logged by the layers below.
type Service struct {
	Menu         *binding.Binding[MenuItem]
	Orders       *binding.Binding[Order]
	Reservations *binding.Binding[Reservation]
	Tables       *binding.Binding[Table]
	Reviews      *binding.Binding[Review]

	m      *manager.Manager
	pay    func(float64, string) error
	now    func() time.Time
	logger logging.Logger
}

func NewService(m *manager.Manager, c Config, l logging.Logger) *Service {
	if l == nil {
		l = logging.NewNopLogger()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Pay == nil {
		c.Pay = func(float64, string) error { return nil }
	}
	var (
		menu    []MenuItem
		tables  []Table
		reviews []Review
	)
	if c.Seed {
		menu = SeedMenu()
		tables = SeedTables()
		reviews = SeedReviews(c.Now())
	}
	return &Service{
		Menu:         binding.New(m, KeyMenuItems, menu, binding.WithLogger[MenuItem](l)),
		Orders:       binding.New[Order](m, KeyOrders, nil, binding.WithLogger[Order](l)),
		Reservations: binding.New[Reservation](m, KeyReservations, nil, binding.WithLogger[Reservation](l)),
		Tables:       binding.New(m, KeyTables, tables, binding.WithLogger[Table](l)),
		Reviews:      binding.New(m, KeyReviews, reviews, binding.WithLogger[Review](l)),
		m:            m,
		pay:          c.Pay,
		now:          c.Now,
		logger:       l,
	}
}

// Start binds every collection, seeding the absent ones.
func (s *Service) Start() {
	s.Menu.Start()
	s.Orders.Start()
	s.Reservations.Start()
	s.Tables.Start()
	s.Reviews.Start()
}

func (s *Service) Stop() {
	s.Menu.Stop()
	s.Orders.Stop()
	s.Reservations.Stop()
	s.Tables.Stop()
	s.Reviews.Stop()
}

// SaveMenuItem replaces the item with the same id, or adds it when there is
// none. An item without id gets a fresh one.
func (s *Service) SaveMenuItem(item MenuItem) (MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" || item.Price < 0 {
		return MenuItem{}, errors.Wrapf(ErrInvalidMenuItem, "name %q price %v", item.Name, item.Price)
	}
	if item.ID == "" {
		item.ID = "item_" + ulid.Make().String()
	}
	r, err := collection.EncodeRecord(item)
	if err != nil {
		return MenuItem{}, errors.Wrap(err, "cannot encode menu item")
	}
	if _, ok := s.find(KeyMenuItems, item.ID, "_id"); ok {
		s.m.UpdateArrayItem(KeyMenuItems, item.ID, func(collection.Record) collection.Record { return r })
	} else {
		s.m.AddArrayItem(KeyMenuItems, r)
	}
	return item, nil
}

func (s *Service) DeleteMenuItem(id string) {
	s.m.RemoveArrayItem(KeyMenuItems, id)
}

func (s *Service) ToggleAvailability(id string) error {
	if _, ok := s.find(KeyMenuItems, id, "_id"); !ok {
		return errors.Wrap(ErrUnknownMenuItem, id)
	}
	s.m.UpdateArrayItem(KeyMenuItems, id, func(r collection.Record) collection.Record {
		available, _ := r["is_available"].(bool)
		r["is_available"] = !available
		return r
	})
	return nil
}

type OrderRequest struct {
	User            *User
	Items           []OrderItem
	OrderType       string
	DeliveryAddress string
	Notes           string
	PaymentMethod   string
}

// Totals returns the subtotal, the tax, the delivery fee and the total of
// an order.
func Totals(items []OrderItem, orderType string) (subtotal, tax, fee, total float64) {
	for _, it := range items {
		subtotal += it.Price * float64(it.Quantity)
	}
	tax = subtotal * taxPercent / 100
	if orderType == OrderDelivery && subtotal < freeDeliveryAbove {
		fee = deliveryFee
	}
	return subtotal, tax, fee, subtotal + tax + fee
}

// PlaceOrder settles the payment and records the order as pending.
func (s *Service) PlaceOrder(req OrderRequest) (Order, error) {
	if len(req.Items) == 0 {
		return Order{}, ErrEmptyOrder
	}
	switch req.OrderType {
	case OrderDineIn:
		req.DeliveryAddress = ""
	case OrderDelivery:
		req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
		if req.DeliveryAddress == "" {
			return Order{}, ErrMissingAddress
		}
	default:
		return Order{}, errors.Wrap(ErrInvalidOrderType, req.OrderType)
	}

	_, _, _, total := Totals(req.Items, req.OrderType)
	if err := s.pay(total, req.PaymentMethod); err != nil {
		return Order{}, errors.Wrap(ErrPaymentFailed, err.Error())
	}

	o := Order{
		ID:              "ORD" + ulid.Make().String(),
		Items:           req.Items,
		Total:           total,
		OrderType:       req.OrderType,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		Status:          OrderPending,
		PaymentStatus:   PaymentPaid,
		CreatedAt:       s.timestamp(),
		CustomerName:    "Guest",
		CustomerPhone:   "N/A",
	}
	if u := req.User; u != nil {
		o.UserID = u.ID
		if u.Name != "" {
			o.CustomerName = u.Name
		}
		if u.Phone != "" {
			o.CustomerPhone = u.Phone
		}
	}
	r, err := collection.EncodeRecord(o)
	if err != nil {
		return Order{}, errors.Wrap(err, "cannot encode order")
	}
	s.m.AddArrayItem(KeyOrders, r)
	s.logger.Debug("order placed", "id", o.ID, "total", o.Total)
	return o, nil
}

func (s *Service) UpdateOrderStatus(id, status string) error {
	if !orderStates[status] {
		return errors.Wrap(ErrInvalidOrderStatus, status)
	}
	if _, ok := s.find(KeyOrders, id, "id"); !ok {
		return errors.Wrap(ErrUnknownOrder, id)
	}
	s.m.UpdateArrayItem(KeyOrders, id, setField("status", status), "id")
	return nil
}

type ReservationRequest struct {
	User            *User
	TableID         string
	Date            string
	TimeSlot        string
	GuestCount      int
	Name            string
	Phone           string
	SpecialRequests string
}

// ReserveTable records a confirmed reservation and then marks the table
// reserved. The two writes are independent.
func (s *Service) ReserveTable(req ReservationRequest) (Reservation, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Date == "" || req.GuestCount < 1 || req.GuestCount > maxGuests || !validSlot(req.TimeSlot) {
		return Reservation{}, errors.Wrapf(ErrInvalidReservation, "name %q date %q slot %q guests %d",
			req.Name, req.Date, req.TimeSlot, req.GuestCount)
	}
	tr, ok := s.find(KeyTables, req.TableID, "_id")
	if !ok {
		return Reservation{}, errors.Wrap(ErrUnknownTable, req.TableID)
	}
	t, err := collection.DecodeRecord[Table](tr)
	if err != nil {
		return Reservation{}, errors.Wrap(err, "cannot decode table")
	}
	if t.Status != TableAvailable {
		return Reservation{}, errors.Wrapf(ErrTableUnavailable, "%s is %s", t.TableNumber, t.Status)
	}

	res := Reservation{
		ID:              "RES" + ulid.Make().String(),
		TableID:         t.ID,
		TableName:       t.TableNumber,
		Date:            req.Date,
		TimeSlot:        req.TimeSlot,
		GuestCount:      req.GuestCount,
		Name:            req.Name,
		Phone:           req.Phone,
		SpecialRequests: req.SpecialRequests,
		Status:          ReservationConfirmed,
		CreatedAt:       s.timestamp(),
	}
	if req.User != nil {
		res.UserID = req.User.ID
	}
	r, err := collection.EncodeRecord(res)
	if err != nil {
		return Reservation{}, errors.Wrap(err, "cannot encode reservation")
	}
	s.m.AddArrayItem(KeyReservations, r)
	s.m.UpdateArrayItem(KeyTables, t.ID, setField("status", TableReserved))
	return res, nil
}

func (s *Service) ConfirmReservation(id string) error {
	if _, ok := s.find(KeyReservations, id, "id"); !ok {
		return errors.Wrap(ErrUnknownReservation, id)
	}
	s.m.UpdateArrayItem(KeyReservations, id, setField("status", ReservationConfirmed), "id")
	return nil
}

// CancelReservation marks the reservation cancelled and then frees its
// table. A failure between the two leaves the table reserved.
func (s *Service) CancelReservation(id string) error {
	r, ok := s.find(KeyReservations, id, "id")
	if !ok {
		return errors.Wrap(ErrUnknownReservation, id)
	}
	s.m.UpdateArrayItem(KeyReservations, id, setField("status", ReservationCancelled), "id")
	if tableID, ok := r["tableId"]; ok {
		s.m.UpdateArrayItem(KeyTables, tableID, setField("status", TableAvailable))
	}
	return nil
}

func (s *Service) SetTableStatus(id, status string) error {
	if !tableStates[status] {
		return errors.Wrap(ErrInvalidTableStatus, status)
	}
	if _, ok := s.find(KeyTables, id, "_id"); !ok {
		return errors.Wrap(ErrUnknownTable, id)
	}
	s.m.UpdateArrayItem(KeyTables, id, setField("status", status))
	return nil
}

type ReviewRequest struct {
	User    *User
	Name    string
	Rating  int
	Comment string
}

// AddReview publishes an approved, visible review. Review ids are
// millisecond timestamps.
func (s *Service) AddReview(req ReviewRequest) (Review, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Comment = strings.TrimSpace(req.Comment)
	if req.Name == "" || req.Comment == "" || req.Rating < 1 || req.Rating > 5 {
		return Review{}, errors.Wrapf(ErrInvalidReview, "name %q rating %d", req.Name, req.Rating)
	}
	now := s.now()
	id := now.UnixMilli()
	for {
		if _, ok := s.find(KeyReviews, id, "id"); !ok {
			break
		}
		id++
	}
	rv := Review{
		ID:        id,
		Name:      req.Name,
		Rating:    req.Rating,
		Date:      "Just now",
		Comment:   req.Comment,
		IsVisible: true,
		Status:    ReviewApproved,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
	if req.User != nil {
		uid := req.User.ID
		rv.UserID = &uid
	}
	r, err := collection.EncodeRecord(rv)
	if err != nil {
		return Review{}, errors.Wrap(err, "cannot encode review")
	}
	s.m.AddArrayItem(KeyReviews, r)
	return rv, nil
}

// ToggleReviewVisibility hides a visible review and shows a hidden one.
func (s *Service) ToggleReviewVisibility(id interface{}) error {
	if _, ok := s.find(KeyReviews, id, "id"); !ok {
		return errors.Wrapf(ErrUnknownReview, "%v", id)
	}
	s.m.UpdateArrayItem(KeyReviews, id, func(r collection.Record) collection.Record {
		visible, _ := r["isVisible"].(bool)
		r["isVisible"] = !visible
		if visible {
			r["status"] = ReviewHidden
		} else {
			r["status"] = ReviewApproved
		}
		return r
	}, "id")
	return nil
}

func (s *Service) ApproveReview(id interface{}) error {
	if _, ok := s.find(KeyReviews, id, "id"); !ok {
		return errors.Wrapf(ErrUnknownReview, "%v", id)
	}
	s.m.UpdateArrayItem(KeyReviews, id, func(r collection.Record) collection.Record {
		r["isVisible"] = true
		r["status"] = ReviewApproved
		return r
	}, "id")
	return nil
}

func (s *Service) MarkHelpful(id interface{}) error {
	if _, ok := s.find(KeyReviews, id, "id"); !ok {
		return errors.Wrapf(ErrUnknownReview, "%v", id)
	}
	s.m.UpdateArrayItem(KeyReviews, id, func(r collection.Record) collection.Record {
		n, _ := r["helpful"].(float64)
		r["helpful"] = n + 1
		return r
	}, "id")
	return nil
}

func (s *Service) DeleteReview(id interface{}) {
	s.m.RemoveArrayItem(KeyReviews, id, "id")
}

// Stats returns the number of records per collection key.
func (s *Service) Stats() map[string]int {
	out := make(map[string]int, len(Keys))
	for _, k := range Keys {
		c, _ := s.m.GetData(k)
		out[k] = len(c)
	}
	return out
}

// ForceSync redelivers every collection, as after the application regains
// focus.
func (s *Service) ForceSync() { s.m.ForceSyncAll() }

func (s *Service) find(key string, id interface{}, field string) (collection.Record, bool) {
	c, ok := s.m.GetData(key)
	if !ok {
		return nil, false
	}
	for _, r := range c {
		if r.Matches(field, id) {
			return r, true
		}
	}
	return nil, false
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func setField(field string, v interface{}) manager.Updater {
	return func(r collection.Record) collection.Record {
		r[field] = v
		return r
	}
}

func validSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}
