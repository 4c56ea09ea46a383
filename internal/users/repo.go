package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, u User) (int64, error)
	ByEmail(ctx context.Context, email string) (User, error)
	ByID(ctx context.Context, id int64) (User, error)
	UpdateProfile(ctx context.Context, id int64, name, phone string) error
	AddLocation(ctx context.Context, l Location) (int64, error)
	Locations(ctx context.Context, userID int64) ([]Location, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const uniqueViolation = "23505"

func (r *Repo) Create(ctx context.Context, u User) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users (name, email, password, role, phone) VALUES ($1,$2,$3,$4,NULLIF($5,'')) RETURNING user_id`,
		u.Name, u.Email, u.Password, u.Role, u.Phone).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return 0, ErrEmailTaken
	}
	return id, err
}

const userColumns = `user_id, name, email, COALESCE(phone,''), role, password`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) ByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *Repo) ByID(ctx context.Context, id int64) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=$1`, id))
}

func (r *Repo) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE users SET name=$1, phone=NULLIF($2,'') WHERE user_id=$3`, name, phone, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) AddLocation(ctx context.Context, l Location) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO customer_location (user_id, street, building, apartment, city, floor)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, NULLIF($6,''))
		RETURNING location_id`,
		l.UserID, l.Street, l.Building, l.Apartment, l.City, l.Floor).Scan(&id)
	return id, err
}

func (r *Repo) Locations(ctx context.Context, userID int64) ([]Location, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT location_id, user_id, street, COALESCE(building,''), COALESCE(apartment,''),
		       COALESCE(city,''), COALESCE(floor,'')
		FROM customer_location WHERE user_id=$1 ORDER BY location_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Location{}
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.UserID, &l.Street, &l.Building, &l.Apartment, &l.City, &l.Floor); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
