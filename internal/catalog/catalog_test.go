package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRestaurantNormalize(t *testing.T) {
	t.Parallel()
	r := Restaurant{Name: "  Felfela "}
	if err := r.Normalize(); err != nil {
		t.Fatal(err)
	}
	if r.Name != "Felfela" || r.Status != "open" {
		t.Fatalf("r=%+v", r)
	}
	for _, bad := range []Restaurant{{}, {Name: "x", Status: "gone"}, {Name: "x", DeliveryTime: -1}} {
		if err := bad.Normalize(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%+v: err=%v", bad, err)
		}
	}
}

func TestItemNormalize(t *testing.T) {
	t.Parallel()
	ok := Item{RestaurantID: 1, Name: "Fool", Price: decimal.RequireFromString("2.50")}
	if err := ok.Normalize(); err != nil {
		t.Fatal(err)
	}
	for _, bad := range []Item{
		{Name: "Fool", Price: decimal.NewFromInt(1)},
		{RestaurantID: 1, Price: decimal.NewFromInt(1)},
		{RestaurantID: 1, Name: "Fool"},
	} {
		if err := bad.Normalize(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%+v: err=%v", bad, err)
		}
	}
}
