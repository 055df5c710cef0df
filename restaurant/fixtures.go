package restaurant

import "time"

// TimeSlots are the bookable reservation slots.
var TimeSlots = []string{
	"11:00 AM", "11:30 AM", "12:00 PM", "12:30 PM",
	"1:00 PM", "1:30 PM", "2:00 PM", "2:30 PM",
	"6:00 PM", "6:30 PM", "7:00 PM", "7:30 PM",
	"8:00 PM", "8:30 PM", "9:00 PM", "9:30 PM", "10:00 PM",
}

const maxGuests = 8

func SeedMenu() []MenuItem {
	item := func(id, name, desc string, price float64, img, cat string) MenuItem {
		return MenuItem{
			ID:          id,
			Name:        name,
			Description: desc,
			Price:       price,
			ImageURL:    "https://images.unsplash.com/" + img + "?w=400",
			Category:    cat,
			IsAvailable: true,
		}
	}
	return []MenuItem{
		item("1", "Hyderabadi Biryani", "Aromatic basmati rice cooked with tender mutton and traditional spices", 350, "photo-1563379091339-03246963d96c", "Andhra Specials"),
		item("2", "Andhra Chicken Curry", "Spicy chicken curry with traditional Andhra spices and curry leaves", 280, "photo-1565557623262-b51c2513a641", "Andhra Specials"),
		item("3", "Gongura Mutton", "Tender mutton cooked with tangy gongura leaves", 420, "photo-1567188040759-fb8a883dc6d8", "Andhra Specials"),
		item("4", "Pesarattu", "Green gram dosa served with ginger chutney", 120, "photo-1630383249896-424e482df921", "Andhra Specials"),
		item("5", "Signature Tandoori Platter", "Mixed tandoori platter with chicken, mutton, and prawns", 650, "photo-1599487488170-d11ec9c172f0", "Chef's Special"),
		item("6", "Royal Thali", "Complete meal with variety of curries, rice, bread, and dessert", 450, "photo-1546833999-b9f581a1996d", "Chef's Special"),
		item("7", "Paneer Butter Masala", "Creamy tomato-based curry with soft paneer cubes", 220, "photo-1631452180519-c014fe946bc7", "Veg"),
		item("8", "Dal Tadka", "Yellow lentils tempered with cumin and spices", 150, "photo-1546833999-b9f581a1996d", "Veg"),
		item("9", "Butter Chicken", "Creamy tomato-based chicken curry", 320, "photo-1603894584373-5ac82b2ae398", "Non-Veg"),
		item("10", "Jeera Rice", "Basmati rice flavored with cumin seeds", 120, "photo-1586201375761-83865001e31c", "Rice Items"),
		item("11", "Chicken Burger", "Grilled chicken patty with lettuce and mayo", 250, "photo-1568901346375-23c9450c58cd", "Fast Food"),
		item("12", "French Fries", "Crispy golden potato fries", 120, "photo-1573080496219-bb080dd4f877", "Fast Food"),
	}
}

// SeedTables is the floor plan: entrance row, middle row, back row and the
// VIP corner.
func SeedTables() []Table {
	return []Table{
		{ID: "table1", TableNumber: "T1", Status: TableAvailable, Seats: 2, PositionX: 150, PositionY: 320},
		{ID: "table2", TableNumber: "T2", Status: TableAvailable, Seats: 2, PositionX: 250, PositionY: 320},
		{ID: "table3", TableNumber: "T3", Status: TableOccupied, Seats: 4, PositionX: 350, PositionY: 320},
		{ID: "table4", TableNumber: "T4", Status: TableAvailable, Seats: 4, PositionX: 450, PositionY: 320},
		{ID: "table5", TableNumber: "T5", Status: TableReserved, Seats: 6, PositionX: 150, PositionY: 220},
		{ID: "table6", TableNumber: "T6", Status: TableAvailable, Seats: 4, PositionX: 300, PositionY: 220},
		{ID: "table7", TableNumber: "T7", Status: TableAvailable, Seats: 4, PositionX: 450, PositionY: 220},
		{ID: "table8", TableNumber: "T8", Status: TableAvailable, Seats: 2, PositionX: 120, PositionY: 140},
		{ID: "table9", TableNumber: "T9", Status: TableOccupied, Seats: 8, PositionX: 300, PositionY: 140},
		{ID: "table10", TableNumber: "T10", Status: TableAvailable, Seats: 6, PositionX: 480, PositionY: 140},
		{ID: "table11", TableNumber: "VIP1", Status: TableAvailable, Seats: 4, PositionX: 550, PositionY: 180},
		{ID: "table12", TableNumber: "VIP2", Status: TableReserved, Seats: 6, PositionX: 550, PositionY: 260},
	}
}

func SeedReviews(now time.Time) []Review {
	day := 24 * time.Hour
	review := func(id int64, name string, rating int, date, comment string, helpful int, age time.Duration) Review {
		return Review{
			ID:        id,
			Name:      name,
			Rating:    rating,
			Date:      date,
			Comment:   comment,
			Helpful:   helpful,
			IsVisible: true,
			Status:    ReviewApproved,
			CreatedAt: now.Add(-age).UTC().Format(time.RFC3339),
		}
	}
	return []Review{
		review(1, "Rajesh Kumar", 5, "2 days ago", "Absolutely amazing Hyderabadi Biryani! The flavors were authentic and the service was excellent. Will definitely come back!", 12, 2*day),
		review(2, "Priya Sharma", 4, "1 week ago", "Great ambiance and delicious Andhra food. The Gongura Mutton was outstanding. Slightly expensive but worth it.", 8, 7*day),
		review(3, "Mohammed Ali", 5, "2 weeks ago", "Best restaurant for authentic South Indian cuisine in the city. The Chef's Special Tandoori Platter is a must-try!", 15, 14*day),
		review(4, "Sneha Reddy", 4, "3 weeks ago", "Loved the traditional flavors and the warm hospitality. The Pesarattu reminded me of home. Highly recommended!", 6, 21*day),
	}
}
