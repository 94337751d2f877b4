package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// EventType is the last segment of a ledger event routing key.
type EventType string

const (
	TransactionCreated EventType = "created"
	TransactionUpdated EventType = "updated"
	TransactionDeleted EventType = "deleted"
)

// RoutingPrefix is shared by every ledger event; consumers bind RoutingPrefix + "*".
const RoutingPrefix = "ledger.transaction."

// LedgerEvent announces a change to the transaction ledger. It carries ids
// only; consumers read current state from the database.
type LedgerEvent struct {
	Type          EventType `json:"type"`
	OwnerID       string    `json:"owner_id"`
	TransactionID string    `json:"transaction_id"`
	AccountIDs    []string  `json:"account_ids"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent builds an event for the accounts touched by a transaction
// mutation, dropping empty and duplicate account ids.
func NewLedgerEvent(typ EventType, ownerID, transactionID string, accountIDs ...string) *LedgerEvent {
	seen := make(map[string]bool, len(accountIDs))
	ids := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return &LedgerEvent{
		Type:          typ,
		OwnerID:       ownerID,
		TransactionID: transactionID,
		AccountIDs:    ids,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *LedgerEvent) RoutingKey() string {
	return RoutingPrefix + string(e.Type)
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity-checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Type {
	case TransactionCreated, TransactionUpdated, TransactionDeleted:
	default:
		return nil, errors.New("unknown ledger event type: " + string(ev.Type))
	}
	if ev.OwnerID == "" || ev.TransactionID == "" {
		return nil, errors.New("ledger event missing owner_id or transaction_id")
	}
	return &ev, nil
}
