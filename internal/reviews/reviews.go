// Package reviews records restaurant reviews and serves per-restaurant ratings.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNoRatings    = errors.New("no valid ratings provided")
	ErrInvalidOrder = errors.New("invalid order_id")
	ErrNotOwner     = errors.New("order does not belong to the authenticated user")
)

const maxRating = 5

type Review struct {
	UserID       int64
	RestaurantID int64
	OrderID      int64 // 0 when not tied to an order
	Rating       int
	Comment      string
}

type RestaurantRating struct {
	RestaurantID int64   `json:"restaurant_id"`
	AvgRating    float64 `json:"avg_rating"`
	ReviewCount  int     `json:"review_count"`
}

type Store interface {
	// OrderOwner returns the owning user id, or found=false.
	OrderOwner(ctx context.Context, orderID int64) (userID int64, found bool, err error)
	Insert(ctx context.Context, r Review) (int64, error)
	Ratings(ctx context.Context) ([]RestaurantRating, error)
}

type Service struct {
	Store Store
}

type SubmitInput struct {
	UserID       int64
	RestaurantID int64
	OrderID      int64
	ItemRatings  map[string]any
	Comment      string
}

// Submit folds per-item ratings into one restaurant rating and stores it.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (int, error) {
	rating, ok := Average(in.ItemRatings)
	if !ok {
		return 0, ErrNoRatings
	}
	if in.OrderID != 0 {
		owner, found, err := s.Store.OrderOwner(ctx, in.OrderID)
		if err != nil {
			return 0, fmt.Errorf("validate order: %w", err)
		}
		if !found {
			return 0, ErrInvalidOrder
		}
		if owner != in.UserID {
			return 0, ErrNotOwner
		}
	}
	_, err := s.Store.Insert(ctx, Review{
		UserID: in.UserID, RestaurantID: in.RestaurantID, OrderID: in.OrderID,
		Rating: rating, Comment: strings.TrimSpace(in.Comment),
	})
	return rating, err
}

func (s *Service) Ratings(ctx context.Context) ([]RestaurantRating, error) {
	return s.Store.Ratings(ctx)
}

// Average parses each value as an integer, drops values <= 0, caps at 5 and rounds the mean half up.
func Average(ratings map[string]any) (int, bool) {
	sum, n := 0, 0
	for _, v := range ratings {
		r := toInt(v)
		if r <= 0 {
			continue
		}
		sum += min(r, maxRating)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return int(math.Floor(float64(sum)/float64(n) + 0.5)), true
}

func toInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case string:
		s := strings.TrimSpace(x)
		if i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
			s = s[:i]
		}
		n, _ := strconv.Atoi(s)
		return n
	}
	return 0
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) OrderOwner(ctx context.Context, orderID int64) (int64, bool, error) {
	var owner int64
	err := r.DB.QueryRow(ctx, `SELECT user_id FROM orders WHERE order_id=$1`, orderID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	return owner, err == nil, err
}

func (r *Repo) Insert(ctx context.Context, rv Review) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO reviews (user_id, restaurant_id, order_id, rating, comment)
		VALUES ($1, $2, NULLIF($3, 0), $4, NULLIF($5, ''))
		RETURNING review_id`,
		rv.UserID, rv.RestaurantID, rv.OrderID, rv.Rating, rv.Comment).Scan(&id)
	return id, err
}

func (r *Repo) Ratings(ctx context.Context) ([]RestaurantRating, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT restaurant_id, AVG(rating)::float8, COUNT(*)
		FROM reviews GROUP BY restaurant_id ORDER BY 2 DESC, restaurant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RestaurantRating{}
	for rows.Next() {
		var x RestaurantRating
		if err := rows.Scan(&x.RestaurantID, &x.AvgRating, &x.ReviewCount); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}
