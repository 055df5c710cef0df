package restaurant

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/pkg/errors"

	"github.com/yndd/dinesync/collection"
	"github.com/yndd/dinesync/manager"
	"github.com/yndd/dinesync/store"
)

var fixedNow = time.Date(2025, 3, 14, 19, 30, 0, 0, time.UTC)

func newService(t *testing.T, c Config) (*Service, *manager.Manager) {
	t.Helper()
	m := manager.New(collection.NewAdapter(store.NewMemoryStore(), nil), nil, nil)
	if c.Now == nil {
		c.Now = func() time.Time { return fixedNow }
	}
	s := NewService(m, c, nil)
	s.Start()
	t.Cleanup(s.Stop)
	return s, m
}

func TestSeed(t *testing.T) {
	s, _ := newService(t, Config{Seed: true})
	assert.Equal(t, s.Stats(), map[string]int{
		KeyMenuItems:    12,
		KeyOrders:       0,
		KeyReservations: 0,
		KeyTables:       12,
		KeyReviews:      4,
	})
	assert.Equal(t, s.Tables.Data()[4].Status, TableReserved)
}

func TestTotals(t *testing.T) {
	items := []OrderItem{{Name: "Dal Tadka", Quantity: 2, Price: 150}}
	sub, tax, fee, total := Totals(items, OrderDelivery)
	assert.Equal(t, sub, float64(300))
	assert.Equal(t, tax, float64(15))
	assert.Equal(t, fee, float64(40))
	assert.Equal(t, total, float64(355))

	_, _, fee, total = Totals(items, OrderDineIn)
	assert.Equal(t, fee, float64(0))
	assert.Equal(t, total, float64(315))

	big := []OrderItem{{Name: "Royal Thali", Quantity: 2, Price: 450}}
	_, _, fee, _ = Totals(big, OrderDelivery)
	assert.Equal(t, fee, float64(0))
}

func TestPlaceOrder(t *testing.T) {
	s, _ := newService(t, Config{})
	o, err := s.PlaceOrder(OrderRequest{
		User:      &User{ID: "user1", Name: "John Doe"},
		Items:     []OrderItem{{Name: "Butter Chicken", Quantity: 1, Price: 320}},
		OrderType: OrderDineIn,
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, o.Status, OrderPending)
	assert.Equal(t, o.PaymentStatus, PaymentPaid)
	assert.Equal(t, o.Total, float64(336))
	assert.Equal(t, o.CustomerName, "John Doe")
	assert.Equal(t, o.CustomerPhone, "N/A")
	assert.Equal(t, s.Orders.Data(), []Order{o})

	assert.Equal(t, s.UpdateOrderStatus(o.ID, OrderPreparing), nil)
	assert.Equal(t, s.Orders.Data()[0].Status, OrderPreparing)

	assert.Equal(t, errors.Is(s.UpdateOrderStatus(o.ID, "eaten"), ErrInvalidOrderStatus), true)
	assert.Equal(t, errors.Is(s.UpdateOrderStatus("ORD404", OrderReady), ErrUnknownOrder), true)
}

func TestPlaceOrderValidation(t *testing.T) {
	s, _ := newService(t, Config{})
	items := []OrderItem{{Name: "French Fries", Quantity: 1, Price: 120}}

	_, err := s.PlaceOrder(OrderRequest{OrderType: OrderDineIn})
	assert.Equal(t, errors.Is(err, ErrEmptyOrder), true)
	_, err = s.PlaceOrder(OrderRequest{Items: items, OrderType: OrderDelivery, DeliveryAddress: "  "})
	assert.Equal(t, errors.Is(err, ErrMissingAddress), true)
	_, err = s.PlaceOrder(OrderRequest{Items: items, OrderType: "takeaway"})
	assert.Equal(t, errors.Is(err, ErrInvalidOrderType), true)
	assert.Equal(t, len(s.Orders.Data()), 0)
}

func TestPlaceOrderPaymentFailure(t *testing.T) {
	s, _ := newService(t, Config{Pay: func(float64, string) error { return errors.New("declined") }})
	_, err := s.PlaceOrder(OrderRequest{
		Items:     []OrderItem{{Name: "Pesarattu", Quantity: 1, Price: 120}},
		OrderType: OrderDineIn,
	})
	assert.Equal(t, errors.Is(err, ErrPaymentFailed), true)
	assert.Equal(t, len(s.Orders.Data()), 0)
}

func TestMenu(t *testing.T) {
	s, _ := newService(t, Config{Seed: true})

	added, err := s.SaveMenuItem(MenuItem{Name: "Aloo Gobi", Price: 180, Category: "Veg", IsAvailable: true})
	assert.Equal(t, err, nil)
	assert.NotEqual(t, added.ID, "")
	assert.Equal(t, len(s.Menu.Data()), 13)

	added.Price = 200
	_, err = s.SaveMenuItem(added)
	assert.Equal(t, err, nil)
	menu := s.Menu.Data()
	assert.Equal(t, len(menu), 13)
	assert.Equal(t, menu[12].Price, float64(200))

	assert.Equal(t, s.ToggleAvailability("8"), nil)
	assert.Equal(t, s.Menu.Data()[7].IsAvailable, false)
	assert.Equal(t, errors.Is(s.ToggleAvailability("nope"), ErrUnknownMenuItem), true)

	s.DeleteMenuItem(added.ID)
	assert.Equal(t, len(s.Menu.Data()), 12)

	_, err = s.SaveMenuItem(MenuItem{Name: " "})
	assert.Equal(t, errors.Is(err, ErrInvalidMenuItem), true)
}

func TestReserveAndCancel(t *testing.T) {
	s, m := newService(t, Config{Seed: true})

	var notified []string
	m.Subscribe(KeyReservations, func(collection.Collection) { notified = append(notified, KeyReservations) })
	m.Subscribe(KeyTables, func(collection.Collection) { notified = append(notified, KeyTables) })

	res, err := s.ReserveTable(ReservationRequest{
		TableID:    "table6",
		Date:       "2025-03-15",
		TimeSlot:   "7:00 PM",
		GuestCount: 4,
		Name:       "Jane Smith",
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, res.Status, ReservationConfirmed)
	assert.Equal(t, res.TableName, "T6")
	assert.Equal(t, s.Tables.Data()[5].Status, TableReserved)

	_, err = s.ReserveTable(ReservationRequest{
		TableID: "table6", Date: "2025-03-15", TimeSlot: "7:00 PM", GuestCount: 2, Name: "Late",
	})
	assert.Equal(t, errors.Is(err, ErrTableUnavailable), true)

	notified = nil
	assert.Equal(t, s.CancelReservation(res.ID), nil)
	assert.Equal(t, notified, []string{KeyReservations, KeyTables})
	assert.Equal(t, s.Reservations.Data()[0].Status, ReservationCancelled)
	assert.Equal(t, s.Tables.Data()[5].Status, TableAvailable)

	assert.Equal(t, errors.Is(s.CancelReservation("RES404"), ErrUnknownReservation), true)
}

func TestReserveValidation(t *testing.T) {
	s, _ := newService(t, Config{Seed: true})
	ok := ReservationRequest{TableID: "table1", Date: "2025-03-15", TimeSlot: "1:00 PM", GuestCount: 2, Name: "A"}

	bad := ok
	bad.TimeSlot = "3:00 AM"
	_, err := s.ReserveTable(bad)
	assert.Equal(t, errors.Is(err, ErrInvalidReservation), true)

	bad = ok
	bad.GuestCount = 0
	_, err = s.ReserveTable(bad)
	assert.Equal(t, errors.Is(err, ErrInvalidReservation), true)

	bad = ok
	bad.TableID = "table99"
	_, err = s.ReserveTable(bad)
	assert.Equal(t, errors.Is(err, ErrUnknownTable), true)

	_, err = s.ReserveTable(ok)
	assert.Equal(t, err, nil)
	assert.Equal(t, s.ConfirmReservation(s.Reservations.Data()[0].ID), nil)
}

func TestSetTableStatus(t *testing.T) {
	s, _ := newService(t, Config{Seed: true})
	assert.Equal(t, s.SetTableStatus("table1", TableOccupied), nil)
	assert.Equal(t, s.Tables.Data()[0].Status, TableOccupied)
	assert.Equal(t, errors.Is(s.SetTableStatus("table1", "Broken"), ErrInvalidTableStatus), true)
	assert.Equal(t, errors.Is(s.SetTableStatus("table0", TableOccupied), ErrUnknownTable), true)
}

func TestReviews(t *testing.T) {
	s, _ := newService(t, Config{Seed: true})

	rv, err := s.AddReview(ReviewRequest{Name: "Anil", Rating: 5, Comment: "Superb biryani"})
	assert.Equal(t, err, nil)
	assert.Equal(t, rv.ID, fixedNow.UnixMilli())
	again, err := s.AddReview(ReviewRequest{Name: "Anil", Rating: 4, Comment: "Still good"})
	assert.Equal(t, err, nil)
	assert.Equal(t, again.ID, fixedNow.UnixMilli()+1)

	assert.Equal(t, s.ToggleReviewVisibility("2"), nil)
	assert.Equal(t, s.Reviews.Data()[1].IsVisible, false)
	assert.Equal(t, s.Reviews.Data()[1].Status, ReviewHidden)
	assert.Equal(t, s.ToggleReviewVisibility(2), nil)
	assert.Equal(t, s.Reviews.Data()[1].IsVisible, true)
	assert.Equal(t, s.Reviews.Data()[1].Status, ReviewApproved)

	assert.Equal(t, s.MarkHelpful(1), nil)
	assert.Equal(t, s.Reviews.Data()[0].Helpful, 13)

	s.DeleteReview(rv.ID)
	assert.Equal(t, len(s.Reviews.Data()), 5)

	_, err = s.AddReview(ReviewRequest{Name: "x", Rating: 6, Comment: "y"})
	assert.Equal(t, errors.Is(err, ErrInvalidReview), true)
	assert.Equal(t, errors.Is(s.MarkHelpful(404), ErrUnknownReview), true)
}
