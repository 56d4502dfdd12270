// internal/domain/catalog/catalog.go
package catalog

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/calendar"
)

// Entry is a purchasable catalog item. Corresponds to the 'inventory_data' table.
type Entry struct {
	InventoryID    int64           `db:"inventory_id"`
	Price          decimal.Decimal `db:"price"`
	ImageURL       string          `db:"image_url"`
	Brand          string          `db:"brand_name"`
	Size           string          `db:"size"`
	Type           string          `db:"type"`
	Gender         string          `db:"gender"`
	Speed          string          `db:"speed"`
	Frame          string          `db:"frame"`
	BrakeType      string          `db:"brake_type"`
	Age            string          `db:"age"`
	Suspension     string          `db:"suspension"`
	TireType       string          `db:"tire_type"`
	CustomerRating sql.NullInt64   `db:"customer_rating"`
}

// UsageRow is one bicycle joined with one of its rental records; a bicycle
// that was never rented yields a single row without rental dates.
type UsageRow struct {
	BicycleID      int64             `db:"bicycle_id"`
	Brand          string            `db:"brand"`
	Type           string            `db:"type"`
	FrameSize      string            `db:"frame_size"`
	DailyRate      int64             `db:"daily_rate"`
	WeeklyRate     int64             `db:"weekly_rate"`
	Status         bicycle.Status    `db:"status"`
	Condition      bicycle.Condition `db:"condition"`
	DateOfPurchase calendar.NullDate `db:"date_of_purchase"`
	InventoryID    int64             `db:"inventory_id"`
	RentalDate     calendar.NullDate `db:"rental_date"`
	ReturnDate     calendar.NullDate `db:"return_date"`
}
