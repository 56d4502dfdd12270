package database

import (
	"context"

	"bicycle_rental/internal/domain/catalog"
)

func (s *Store) ListUsageHistory(ctx context.Context) ([]catalog.UsageRow, error) {
	query := `SELECT b.bicycle_id, b.brand, b.type, b.frame_size, b.daily_rate, b.weekly_rate,
                     b.status, b.condition, b.date_of_purchase, b.inventory_id,
                     r.rental_date, r.return_date
               FROM bicycle_info b
               LEFT JOIN rental_history r ON r.bicycle_id = b.bicycle_id
               ORDER BY b.bicycle_id, r.rental_id`
	rows := make([]catalog.UsageRow, 0)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, wrap("listing usage history", err)
	}
	return rows, nil
}

func (s *Store) ListEntries(ctx context.Context) ([]catalog.Entry, error) {
	query := `SELECT inventory_id, price,
                     COALESCE(image_url, '') AS image_url,
                     COALESCE(brand_name, '') AS brand_name,
                     COALESCE(size, '') AS size,
                     COALESCE(type, '') AS type,
                     COALESCE(gender, '') AS gender,
                     COALESCE(speed, '') AS speed,
                     COALESCE(frame, '') AS frame,
                     COALESCE(brake_type, '') AS brake_type,
                     COALESCE(age, '') AS age,
                     COALESCE(suspension, '') AS suspension,
                     COALESCE(tire_type, '') AS tire_type,
                     customer_rating
               FROM inventory_data
               ORDER BY inventory_id`
	entries := make([]catalog.Entry, 0)
	if err := s.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, wrap("listing catalog entries", err)
	}
	return entries, nil
}
