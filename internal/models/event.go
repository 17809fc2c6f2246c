package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	// DefaultHouseID is substituted when the payload carries no houseId.
	// It is never a valid house, so such requests are always rejected.
	DefaultHouseID = "Unknown House"

	// RecordSource tags every persisted record with its origin.
	RecordSource = "UI"

	// TriggerSource and TriggerDetailType label the published trigger so
	// downstream consumers can filter on them.
	TriggerSource     = "doorbell.lambda"
	TriggerDetailType = "DoorbellTriggered"
)

// validHouses is the fixed set of house identifiers accepted by the handler.
var validHouses = map[string]struct{}{
	"H1": {},
	"H2": {},
	"H3": {},
	"H4": {},
}

// IsValidHouse reports whether id is one of the known houses.
func IsValidHouse(id string) bool {
	_, ok := validHouses[id]
	return ok
}

// DoorbellRequest is the inbound JSON payload.
// HouseID is kept raw so a non-string value is reported back verbatim
// instead of failing the whole decode.
type DoorbellRequest struct {
	HouseID json.RawMessage `json:"houseId,omitempty"`
}

// House returns the house identifier with the default applied when absent.
func (r DoorbellRequest) House() string {
	if len(r.HouseID) == 0 {
		return DefaultHouseID
	}
	// null decodes into a string without error, so echo it explicitly.
	if raw := bytes.TrimSpace(r.HouseID); bytes.Equal(raw, []byte("null")) {
		return string(raw)
	}
	var s string
	if err := json.Unmarshal(r.HouseID, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(r.HouseID))
}

// DoorbellEvent is the record written to the record store.
type DoorbellEvent struct {
	EventID   string `json:"EventID"`
	Timestamp string `json:"Timestamp"`
	HouseID   string `json:"HouseID"`
	Source    string `json:"source"`
}

// TriggerDetail is the detail payload of the published trigger.
type TriggerDetail struct {
	EventID string `json:"eventId"`
	HouseID string `json:"houseId"`
}

// Request is the transport-neutral invocation handed to the handler.
// A nil Body means the caller sent no body at all.
type Request struct {
	Body *string
}

// Response is the transport-neutral result of one invocation.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Result is the JSON document carried in Response.Body.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)
