package gateway

import "encoding/json"

// envelope is the wire-level frame: every message carries a type tag and,
// except for the flat error event (see errorMessage), a data payload
// (spec.md §6).
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Incoming payloads.

type newOrderData struct {
	ID        *string  `json:"id,omitempty"`
	UserID    string   `json:"userId"`
	Pair      string   `json:"pair"`
	Side      string   `json:"type"`
	OrderType string   `json:"orderType"`
	Amount    float64  `json:"amount"`
	Price     *float64 `json:"price,omitempty"`
	// Timestamp is accepted on the wire but never trusted for priority;
	// the engine assigns created_at itself on intake (spec.md §3).
	Timestamp *int64 `json:"timestamp,omitempty"`
}

type cancelOrderData struct {
	OrderID string `json:"orderId"`
	Pair    string `json:"pair"`
}

type getOrderbookData struct {
	Pair string `json:"pair"`
}

// Outgoing payloads.

type orderFilledData struct {
	OrderID       string  `json:"orderId"`
	FilledAmount  float64 `json:"filledAmount"`
	ExecutedPrice float64 `json:"executedPrice"`
}

type orderPartialData struct {
	OrderID         string  `json:"orderId"`
	PartialFill     float64 `json:"partialFill"`
	RemainingAmount float64 `json:"remainingAmount"`
}

type orderCancelledData struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

type priceLevelPair = [2]float64

type orderbookSnapshotData struct {
	Pair    string        `json:"pair"`
	Bids    []priceLevelPair `json:"bids"`
	Asks    []priceLevelPair `json:"asks"`
	BestBid *float64      `json:"bestBid,omitempty"`
	BestAsk *float64      `json:"bestAsk,omitempty"`
	Spread  *float64      `json:"spread,omitempty"`
}

// errorMessage is the wire shape of an error event. Unlike the other
// outgoing events, error does not nest its payload under "data": the
// original_source websocket.rs OutgoingMessage::Error variant has its
// own "message" field directly, not a "data" struct field, so under
// serde's internally-tagged representation it serializes flat as
// {"type":"error","message":"..."}.
type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func encodeEvent(typ string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: typ, Data: raw})
}

func encodeError(message string) ([]byte, error) {
	return json.Marshal(errorMessage{Type: "error", Message: message})
}
