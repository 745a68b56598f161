package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

type OrderKind string

const (
	OrderKindSupply  OrderKind = "supply"
	OrderKindOffload OrderKind = "offload"
)

var (
	ErrInvalidPayload   = errors.New("invalid order payload")
	ErrUnknownOrderKind = errors.New("unknown order kind")
)

// Order is one transport request: a supply moves boxes from the
// receiving area into storage, an offload moves them out to the
// shipping area. Orders flow by value and never change after creation.
type Order struct {
	Index    int       `json:"index"`
	Code     string    `json:"code"`
	Quantity int       `json:"quantity"`
	Kind     OrderKind `json:"order_type"`
}

func (k OrderKind) Valid() bool {
	return k == OrderKindSupply || k == OrderKindOffload
}

// DecodeOrder parses a queue message body. Unknown fields are ignored,
// missing required fields and unrecognized kinds are rejected.
func DecodeOrder(body []byte) (Order, error) {
	var o Order
	if err := json.Unmarshal(body, &o); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if o.Index <= 0 || o.Code == "" || o.Quantity <= 0 {
		return Order{}, fmt.Errorf("%w: index=%d code=%q quantity=%d",
			ErrInvalidPayload, o.Index, o.Code, o.Quantity)
	}
	if !o.Kind.Valid() {
		return Order{}, fmt.Errorf("%w: %q", ErrUnknownOrderKind, o.Kind)
	}
	return o, nil
}

func (o Order) Encode() ([]byte, error) {
	return json.Marshal(o)
}
