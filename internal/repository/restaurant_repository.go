package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
)

// RestaurantRepo stores the hotel's themed restaurants and their booking
// configuration.  Menu and upsell lists are persisted as JSON documents
// alongside the scalar settings.
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo returns a new RestaurantRepo bound to the given database.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

// List returns all restaurants ordered for the booking page.
func (r *RestaurantRepo) List(ctx context.Context) ([]model.Restaurant, error) {
	const q = `SELECT id, name, description, is_active, sort_order, card_image, cover_image, menu_pdf_url
	           FROM restaurants ORDER BY sort_order, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Restaurant, 0)
	for rows.Next() {
		var m model.Restaurant
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.IsActive, &m.SortOrder,
			&m.CardImage, &m.CoverImage, &m.MenuPDFURL); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one restaurant or ErrNotFound.
func (r *RestaurantRepo) Get(ctx context.Context, id string) (*model.Restaurant, error) {
	const q = `SELECT id, name, description, is_active, sort_order, card_image, cover_image, menu_pdf_url
	           FROM restaurants WHERE id = ?`
	var m model.Restaurant
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Name, &m.Description, &m.IsActive,
		&m.SortOrder, &m.CardImage, &m.CoverImage, &m.MenuPDFURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Upsert creates or replaces a restaurant row.
func (r *RestaurantRepo) Upsert(ctx context.Context, m *model.Restaurant) error {
	const q = `INSERT INTO restaurants (id, name, description, is_active, sort_order, card_image, cover_image, menu_pdf_url)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             name = VALUES(name), description = VALUES(description), is_active = VALUES(is_active),
	             sort_order = VALUES(sort_order), card_image = VALUES(card_image),
	             cover_image = VALUES(cover_image), menu_pdf_url = VALUES(menu_pdf_url)`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.Name, m.Description, m.IsActive, m.SortOrder,
		m.CardImage, m.CoverImage, m.MenuPDFURL)
	return err
}

// Exists reports whether a restaurant id is taken.
func (r *RestaurantRepo) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM restaurants WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a restaurant; its config row cascades away.
func (r *RestaurantRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM restaurants WHERE id = ?`, id)
	return err
}

// GetConfig returns the booking configuration for a restaurant or
// ErrNotFound.
func (r *RestaurantRepo) GetConfig(ctx context.Context, restaurantID string) (*model.RestaurantConfig, error) {
	const q = `SELECT restaurant_id, opening_time, closing_time, time_slot_interval_min, max_guests_per_booking,
	                  has_main_course, main_course_label, main_courses,
	                  has_upsells, upsell_label, upsell_items
	           FROM restaurant_configs WHERE restaurant_id = ?`
	row := r.db.QueryRowContext(ctx, q, restaurantID)
	cfg, err := scanConfig(row.Scan)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ListConfigs returns all restaurant configurations keyed by restaurant id.
func (r *RestaurantRepo) ListConfigs(ctx context.Context) (map[string]model.RestaurantConfig, error) {
	const q = `SELECT restaurant_id, opening_time, closing_time, time_slot_interval_min, max_guests_per_booking,
	                  has_main_course, main_course_label, main_courses,
	                  has_upsells, upsell_label, upsell_items
	           FROM restaurant_configs`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]model.RestaurantConfig)
	for rows.Next() {
		cfg, err := scanConfig(rows.Scan)
		if err != nil {
			return nil, err
		}
		out[cfg.RestaurantID] = *cfg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveConfig creates or replaces a restaurant's booking configuration.
func (r *RestaurantRepo) SaveConfig(ctx context.Context, cfg *model.RestaurantConfig) error {
	coursesJSON, err := json.Marshal(cfg.MainCourses)
	if err != nil {
		return fmt.Errorf("encode main_courses: %w", err)
	}
	upsellJSON, err := json.Marshal(cfg.UpsellItems)
	if err != nil {
		return fmt.Errorf("encode upsell_items: %w", err)
	}
	const q = `INSERT INTO restaurant_configs
	             (restaurant_id, opening_time, closing_time, time_slot_interval_min, max_guests_per_booking,
	              has_main_course, main_course_label, main_courses, has_upsells, upsell_label, upsell_items)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             opening_time = VALUES(opening_time), closing_time = VALUES(closing_time),
	             time_slot_interval_min = VALUES(time_slot_interval_min),
	             max_guests_per_booking = VALUES(max_guests_per_booking),
	             has_main_course = VALUES(has_main_course), main_course_label = VALUES(main_course_label),
	             main_courses = VALUES(main_courses), has_upsells = VALUES(has_upsells),
	             upsell_label = VALUES(upsell_label), upsell_items = VALUES(upsell_items)`
	_, err = r.db.ExecContext(ctx, q, cfg.RestaurantID, cfg.OpeningTime, cfg.ClosingTime,
		cfg.TimeSlotIntervalMin, cfg.MaxGuestsPerBooking,
		cfg.HasMainCourse, cfg.MainCourseLabel, coursesJSON,
		cfg.HasUpsells, cfg.UpsellLabel, upsellJSON)
	return err
}

func scanConfig(scan func(dest ...any) error) (*model.RestaurantConfig, error) {
	var cfg model.RestaurantConfig
	var coursesJSON, upsellJSON []byte
	err := scan(&cfg.RestaurantID, &cfg.OpeningTime, &cfg.ClosingTime, &cfg.TimeSlotIntervalMin,
		&cfg.MaxGuestsPerBooking, &cfg.HasMainCourse, &cfg.MainCourseLabel, &coursesJSON,
		&cfg.HasUpsells, &cfg.UpsellLabel, &upsellJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(coursesJSON) > 0 {
		if err := json.Unmarshal(coursesJSON, &cfg.MainCourses); err != nil {
			return nil, fmt.Errorf("decode main_courses: %w", err)
		}
	}
	if cfg.MainCourses == nil {
		cfg.MainCourses = []model.MainCourseItem{}
	}
	if len(upsellJSON) > 0 {
		if err := json.Unmarshal(upsellJSON, &cfg.UpsellItems); err != nil {
			return nil, fmt.Errorf("decode upsell_items: %w", err)
		}
	}
	if cfg.UpsellItems == nil {
		cfg.UpsellItems = []model.UpsellItem{}
	}
	return &cfg, nil
}
