package orders

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPreparing Status = "Preparing"
	StatusOnTheWay  Status = "On the way"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Cancelled is reachable only through an explicit admin update; the sweep never produces it.
var validNext = map[Status]map[Status]bool{
	StatusPreparing: {StatusOnTheWay: true, StatusCancelled: true},
	StatusOnTheWay:  {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Rank orders the forward chain Preparing < On the way < Delivered. Cancelled and unknown values rank -1.
func (s Status) Rank() int {
	switch s {
	case StatusPreparing:
		return 0
	case StatusOnTheWay:
		return 1
	case StatusDelivered:
		return 2
	}
	return -1
}

// ParseStatus is case-insensitive and accepts the "canceled" spelling.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "preparing":
		return StatusPreparing, nil
	case "on the way":
		return StatusOnTheWay, nil
	case "delivered":
		return StatusDelivered, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Thresholds drive both the sweep and the display-time estimate.
// Delivery is measured from the end of preparation, so delivery happens at Preparing+Delivery.
type Thresholds struct {
	Preparing time.Duration
	Delivery  time.Duration
}

var DefaultThresholds = Thresholds{Preparing: 15 * time.Minute, Delivery: 20 * time.Minute}

func (t Thresholds) Total() time.Duration { return t.Preparing + t.Delivery }

// Cutoffs returns the latest order_date still eligible for each automatic transition at now.
func (t Thresholds) Cutoffs(now time.Time) (onTheWay, delivered time.Time) {
	return now.Add(-t.Preparing), now.Add(-t.Total())
}

// Estimate derives a status from order age alone.
func (t Thresholds) Estimate(age time.Duration) Status {
	switch {
	case age < t.Preparing:
		return StatusPreparing
	case age < t.Total():
		return StatusOnTheWay
	default:
		return StatusDelivered
	}
}

// Reached returns the age at which an order enters s under automatic progression.
func (t Thresholds) Reached(s Status) time.Duration {
	switch s {
	case StatusOnTheWay:
		return t.Preparing
	case StatusDelivered:
		return t.Total()
	}
	return 0
}

// MinutesLeft counts whole minutes until the estimated stage at age ends, using floored
// elapsed minutes. Zero once delivered.
func (t Thresholds) MinutesLeft(age time.Duration) int {
	if age < 0 {
		age = 0
	}
	elapsed := int(age / time.Minute)
	var end time.Duration
	switch t.Estimate(age) {
	case StatusPreparing:
		end = t.Preparing
	case StatusOnTheWay:
		end = t.Total()
	default:
		return 0
	}
	left := int(end/time.Minute) - elapsed
	if left < 0 {
		return 0
	}
	return left
}
