// Package catalog holds restaurants and their menu items.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Restaurant struct {
	ID            int64  `json:"restaurant_id"`
	Name          string `json:"name"`
	Image         string `json:"image"`
	Phone         string `json:"phone"`
	DeliveryTime  int    `json:"delivery_time"`
	PreparingTime int    `json:"preparing_time"`
	Category      string `json:"category"`
	OpeningTime   string `json:"opening_time"`
	ClosingTime   string `json:"closing_time"`
	Status        string `json:"status"`
}

type Item struct {
	ID           int64           `json:"item_id"`
	RestaurantID int64           `json:"restaurant_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Category     string          `json:"category"`
	Availability bool            `json:"availability"`
}

var restaurantStatuses = map[string]bool{"open": true, "closed": true, "busy": true}

// Normalize validates r and fills defaults for a write.
func (r *Restaurant) Normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if r.Status == "" {
		r.Status = "open"
	}
	if !restaurantStatuses[r.Status] {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, r.Status)
	}
	if r.DeliveryTime < 0 || r.PreparingTime < 0 {
		return fmt.Errorf("%w: negative time", ErrInvalidInput)
	}
	return nil
}

func (it *Item) Normalize() error {
	it.Name = strings.TrimSpace(it.Name)
	if it.RestaurantID <= 0 || it.Name == "" || !it.Price.IsPositive() {
		return fmt.Errorf("%w: restaurant id, name and price are required", ErrInvalidInput)
	}
	return nil
}
