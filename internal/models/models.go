package models

import (
	"errors"
	"fmt"
	"strings"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide accepts BUY or SELL in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

type Trade struct {
	EventTimeNs   int64   `json:"event_time_ns"`
	Venue         string  `json:"venue"`
	Instrument    string  `json:"instrument"`
	Side          Side    `json:"side"`
	Price         float64 `json:"price"`
	Quantity      float64 `json:"quantity"`
	ParticipantID string  `json:"participant_id"`
	OrderID       string  `json:"order_id"`
	ExecutionID   string  `json:"execution_id"`
	Origin        string  `json:"origin"`
}

func (t Trade) Validate() error {
	if !t.Side.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSide, t.Side)
	}
	if !(t.Price > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, t.Price)
	}
	if !(t.Quantity > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, t.Quantity)
	}
	if t.OrderID == "" || t.ExecutionID == "" {
		return ErrMissingIdentifier
	}
	if t.Instrument == "" {
		return ErrMissingInstrument
	}
	return nil
}

// Batch is an ordered group of trades sent in one call.
type Batch []Trade

// Ack is the outcome of one transmission attempt. Err is set only when the
// failure was observed locally (transport, timeout, decoding); acks supplied
// by the remote side never carry it.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func Accepted(message string) Ack {
	return Ack{Success: true, Message: message}
}

func Rejected(message string) Ack {
	return Ack{Success: false, Message: message}
}

func Failed(err error) Ack {
	if err == nil {
		err = ErrUnknownFailure
	}
	return Ack{Success: false, Message: err.Error(), Err: err}
}

// Instrument is a tradable symbol. A zero PriceBase means the generator's
// default price band applies.
type Instrument struct {
	Symbol     string  `json:"symbol"`
	PriceBase  float64 `json:"price_base"`
	PriceRange float64 `json:"price_range"`
}

var (
	ErrInvalidSide       = errors.New("side must be BUY or SELL")
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrMissingIdentifier = errors.New("missing order or execution identifier")
	ErrMissingInstrument = errors.New("missing instrument identifier")
	ErrUnknownFailure    = errors.New("unknown failure")
)
