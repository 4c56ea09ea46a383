package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Restaurants(ctx context.Context) ([]Restaurant, error)
	Restaurant(ctx context.Context, id int64) (Restaurant, error)
	Items(ctx context.Context, restaurantID int64) ([]Item, error)
	CreateRestaurant(ctx context.Context, r Restaurant) (int64, error)
	UpdateRestaurant(ctx context.Context, r Restaurant) error
	DeleteRestaurant(ctx context.Context, id int64) error
	CreateItem(ctx context.Context, it Item) (int64, error)
	UpdateItem(ctx context.Context, it Item) error
	DeleteItem(ctx context.Context, id int64) error
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const restaurantColumns = `restaurant_id, name, image, phone, delivery_time, preparing_time, category,
	COALESCE(to_char(opening_time, 'HH24:MI'), ''), COALESCE(to_char(closing_time, 'HH24:MI'), ''), status`

func scanRestaurant(row pgx.Row, r *Restaurant) error {
	return row.Scan(&r.ID, &r.Name, &r.Image, &r.Phone, &r.DeliveryTime, &r.PreparingTime,
		&r.Category, &r.OpeningTime, &r.ClosingTime, &r.Status)
}

func (r *Repo) Restaurants(ctx context.Context) ([]Restaurant, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY restaurant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Restaurant{}
	for rows.Next() {
		var x Restaurant
		if err := scanRestaurant(rows, &x); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *Repo) Restaurant(ctx context.Context, id int64) (Restaurant, error) {
	var x Restaurant
	err := scanRestaurant(r.DB.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE restaurant_id=$1`, id), &x)
	if errors.Is(err, pgx.ErrNoRows) {
		return x, ErrNotFound
	}
	return x, err
}

func (r *Repo) Items(ctx context.Context, restaurantID int64) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT item_id, restaurant_id, name, description, price, image, category, availability
		FROM items WHERE restaurant_id=$1 ORDER BY item_id`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.RestaurantID, &it.Name, &it.Description, &it.Price,
			&it.Image, &it.Category, &it.Availability); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) CreateRestaurant(ctx context.Context, x Restaurant) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO restaurants (name, image, phone, delivery_time, preparing_time, category, opening_time, closing_time, status)
		VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,'')::time,NULLIF($8,'')::time,$9)
		RETURNING restaurant_id`,
		x.Name, x.Image, x.Phone, x.DeliveryTime, x.PreparingTime, x.Category, x.OpeningTime, x.ClosingTime, x.Status,
	).Scan(&id)
	return id, err
}

func (r *Repo) UpdateRestaurant(ctx context.Context, x Restaurant) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE restaurants SET name=$1, image=$2, phone=$3, delivery_time=$4, preparing_time=$5, category=$6,
		       opening_time=NULLIF($7,'')::time, closing_time=NULLIF($8,'')::time, status=$9
		WHERE restaurant_id=$10`,
		x.Name, x.Image, x.Phone, x.DeliveryTime, x.PreparingTime, x.Category, x.OpeningTime, x.ClosingTime, x.Status, x.ID)
	return affected(tag, err)
}

func (r *Repo) DeleteRestaurant(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM restaurants WHERE restaurant_id=$1`, id)
	return affected(tag, err)
}

func (r *Repo) CreateItem(ctx context.Context, it Item) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO items (restaurant_id, name, description, price, image, category, availability)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING item_id`,
		it.RestaurantID, it.Name, it.Description, it.Price, it.Image, it.Category, it.Availability,
	).Scan(&id)
	return id, foreignKey(err)
}

func (r *Repo) UpdateItem(ctx context.Context, it Item) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE items SET restaurant_id=$1, name=$2, description=$3, price=$4, image=$5, category=$6, availability=$7
		WHERE item_id=$8`,
		it.RestaurantID, it.Name, it.Description, it.Price, it.Image, it.Category, it.Availability, it.ID)
	return affected(tag, foreignKey(err))
}

func (r *Repo) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM items WHERE item_id=$1`, id)
	return affected(tag, err)
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// foreignKey maps a missing restaurant on item writes to ErrNotFound.
func foreignKey(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrNotFound
	}
	return err
}
