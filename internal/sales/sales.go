// Package sales aggregates order totals per day and per month.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrInvalidPeriod = errors.New("invalid period")

type Period struct {
	Period      string          `json:"period"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	OrdersCount int             `json:"orders_count"`
}

type Store interface {
	Daily(ctx context.Context, day string) ([]Period, error)
	Monthly(ctx context.Context, month string) ([]Period, error)
}

// ParseDay accepts "" (all days) or YYYY-MM-DD.
func ParseDay(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", fmt.Errorf("%w: date %q", ErrInvalidPeriod, s)
	}
	return s, nil
}

// ParseMonth accepts "" (all months) or YYYY-MM.
func ParseMonth(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01", s); err != nil {
		return "", fmt.Errorf("%w: month %q", ErrInvalidPeriod, s)
	}
	return s, nil
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) Daily(ctx context.Context, day string) ([]Period, error) {
	return r.aggregate(ctx, "YYYY-MM-DD", day)
}

func (r *Repo) Monthly(ctx context.Context, month string) ([]Period, error) {
	return r.aggregate(ctx, "YYYY-MM", month)
}

// aggregate groups orders by to_char(order_date, format); an empty filter returns every period.
func (r *Repo) aggregate(ctx context.Context, format, filter string) ([]Period, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT to_char(order_date, $1) AS period, COALESCE(SUM(total_amount), 0), COUNT(order_id)
		FROM orders
		WHERE $2 = '' OR to_char(order_date, $1) = $2
		GROUP BY period ORDER BY period DESC`, format, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Period{}
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.Period, &p.TotalSales, &p.OrdersCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
