package model

// MainCourseItem is one selectable main course in a restaurant's menu
// configuration.
type MainCourseItem struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// UpsellItem is an optional extra (e.g. a sushi platter) guests can add to
// a booking.
type UpsellItem struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// RestaurantConfig carries the bookable-hours and menu settings for one
// restaurant.  Restaurants with HasMainCourse set require exactly one
// course selection per guest at booking time.
type RestaurantConfig struct {
	RestaurantID        string           `json:"restaurantId"`
	OpeningTime         string           `json:"openingTime"`
	ClosingTime         string           `json:"closingTime"`
	TimeSlotIntervalMin int              `json:"timeSlotInterval"`
	MaxGuestsPerBooking int              `json:"maxGuestsPerBooking"`
	HasMainCourse       bool             `json:"hasMainCourseSelection"`
	MainCourseLabel     string           `json:"mainCourseLabel"`
	MainCourses         []MainCourseItem `json:"mainCourses"`
	HasUpsells          bool             `json:"hasUpsells"`
	UpsellLabel         string           `json:"upsellLabel"`
	UpsellItems         []UpsellItem     `json:"upsellItems"`
}

// Restaurant is one of the hotel's themed dinner venues.
//
// Fields:
//  ID          – stable identifier, also used in ledger keys (e.g. "Italian").
//  Name        – display name.
//  Description – marketing copy shown to guests.
//  IsActive    – inactive restaurants are hidden from guests.
//  SortOrder   – ordering on the booking page.
//  CardImage/CoverImage/MenuPDFURL – media shown by the frontend.
type Restaurant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
	SortOrder   int    `json:"order"`
	CardImage   string `json:"cardImage"`
	CoverImage  string `json:"coverImage"`
	MenuPDFURL  string `json:"menuPdfUrl"`
}
