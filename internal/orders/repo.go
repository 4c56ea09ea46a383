package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const orderColumns = `o.order_id, o.user_id, o.location_id, o.order_date, o.status, o.total_amount, o.payment_method`

func scanOrder(row pgx.Row, o *Order, extra ...any) error {
	var status string
	dest := append([]any{&o.ID, &o.UserID, &o.LocationID, &o.OrderDate, &status, &o.TotalAmount, &o.PaymentMethod}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	o.Status = Status(status)
	return nil
}

// CreateOrder: one transaction for the order row and every line, so a bad line rolls back the order.
func (r *Repo) CreateOrder(ctx context.Context, in NewOrder) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var owned bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM customer_location WHERE location_id=$1 AND user_id=$2)`,
		in.LocationID, in.UserID).Scan(&owned); err != nil {
		return 0, err
	}
	if !owned {
		return 0, fmt.Errorf("%w: location %d", ErrNoLocation, in.LocationID)
	}

	ids := make([]int64, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.ItemID)
	}
	rows, err := tx.Query(ctx, `SELECT item_id, price FROM items WHERE item_id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	menu := make(map[int64]decimal.Decimal, len(ids))
	for rows.Next() {
		var id int64
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			rows.Close()
			return 0, err
		}
		menu[id] = price
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var orderID int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, location_id, total_amount, payment_method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING order_id`,
		in.UserID, in.LocationID, in.TotalAmount, in.PaymentMethod, string(StatusPreparing),
	).Scan(&orderID); err != nil {
		return 0, err
	}

	for _, it := range in.Items {
		live, ok := menu[it.ItemID]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownItem, it.ItemID)
		}
		price := it.Price
		if !price.IsPositive() {
			price = live
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_details (order_id, item_id, quantity, price)
			VALUES ($1, $2, $3, $4)`,
			orderID, it.ItemID, it.Quantity, price,
		); err != nil {
			return 0, fmt.Errorf("insert line item %d: %w", it.ItemID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return orderID, nil
}

func (r *Repo) ListAll(ctx context.Context) ([]AdminOrder, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+orderColumns+`, COALESCE(u.name, '')
		FROM orders o
		LEFT JOIN users u ON u.user_id = o.user_id
		ORDER BY o.order_date DESC, o.order_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AdminOrder{}
	for rows.Next() {
		var a AdminOrder
		if err := scanOrder(rows, &a.Order, &a.CustomerName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := r.lineItems(ctx, adminIDs(out))
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = lines[out[i].ID]
		if out[i].Items == nil {
			out[i].Items = []LineItem{}
		}
	}
	return out, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]HistoryOrder, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.order_date DESC, o.order_id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	lines, err := r.lineItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, newHistoryOrder(o, lines[o.ID]))
	}
	return out, nil
}

func (r *Repo) GetForUser(ctx context.Context, orderID, userID int64) (*TrackedOrder, error) {
	var o Order
	var a Address
	err := scanOrder(r.DB.QueryRow(ctx, `
		SELECT `+orderColumns+`,
		       COALESCE(cl.street, ''), COALESCE(cl.building, ''), COALESCE(cl.apartment, ''),
		       COALESCE(cl.city, ''), COALESCE(cl.floor, '')
		FROM orders o
		LEFT JOIN customer_location cl ON cl.location_id = o.location_id
		WHERE o.order_id = $1 AND o.user_id = $2`, orderID, userID),
		&o, &a.Street, &a.Building, &a.Apartment, &a.City, &a.Floor)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	lines, err := r.lineItems(ctx, []int64{orderID})
	if err != nil {
		return nil, err
	}
	return newTrackedOrder(o, lines[orderID], a), nil
}

func (r *Repo) GetStatus(ctx context.Context, orderID int64) (OrderStatus, error) {
	var st OrderStatus
	var s string
	err := r.DB.QueryRow(ctx,
		`SELECT order_id, user_id, status, order_date FROM orders WHERE order_id=$1`, orderID,
	).Scan(&st.OrderID, &st.UserID, &s, &st.OrderDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderStatus{}, ErrNotFound
	}
	if err != nil {
		return OrderStatus{}, err
	}
	st.Status = Status(s)
	return st, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, orderID int64, decide func(current Status) (Status, error)) (StatusChange, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return StatusChange{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ch := StatusChange{OrderID: orderID}
	var cur string
	err = tx.QueryRow(ctx,
		`SELECT status, user_id, order_date FROM orders WHERE order_id=$1 FOR UPDATE`, orderID,
	).Scan(&cur, &ch.UserID, &ch.OrderDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return StatusChange{}, ErrNotFound
	}
	if err != nil {
		return StatusChange{}, err
	}
	ch.From = Status(cur)

	ch.To, err = decide(ch.From)
	if err != nil {
		return StatusChange{}, err
	}
	if ch.To == ch.From {
		return ch, nil
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE order_id=$1`, orderID, string(ch.To)); err != nil {
		return StatusChange{}, err
	}
	return ch, tx.Commit(ctx)
}

// AdvanceStatus is one bulk conditional update; rows not yet eligible never match, so reruns are no-ops.
func (r *Repo) AdvanceStatus(ctx context.Context, from, to Status, cutoff time.Time) ([]StatusChange, error) {
	rows, err := r.DB.Query(ctx, `
		UPDATE orders
		SET status = $2
		WHERE status = $1 AND order_date <= $3
		RETURNING order_id, user_id, order_date`, string(from), string(to), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusChange
	for rows.Next() {
		ch := StatusChange{From: from, To: to}
		if err := rows.Scan(&ch.OrderID, &ch.UserID, &ch.OrderDate); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// lineItems loads the lines of many orders in one query, keyed by order id.
func (r *Repo) lineItems(ctx context.Context, orderIDs []int64) (map[int64][]LineItem, error) {
	out := make(map[int64][]LineItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT od.order_id, od.item_id, i.name, od.price, od.quantity, i.image, r.restaurant_id, r.name
		FROM order_details od
		JOIN items i ON i.item_id = od.item_id
		JOIN restaurants r ON r.restaurant_id = i.restaurant_id
		WHERE od.order_id = ANY($1)
		ORDER BY od.order_id, od.item_id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID int64
		var it LineItem
		if err := rows.Scan(&orderID, &it.ItemID, &it.Name, &it.Price, &it.Quantity, &it.Image,
			&it.RestaurantID, &it.RestaurantName); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

func adminIDs(in []AdminOrder) []int64 {
	ids := make([]int64, 0, len(in))
	for _, o := range in {
		ids = append(ids, o.ID)
	}
	return ids
}
