package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
)

// OrderEventRow mirrors the order_events BigQuery schema. Columns that do not
// apply to an event type are NULL.
type OrderEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	OrderID       *string            `bigquery:"order_id"`
	ProductID     *string            `bigquery:"product_id"`
	CustomerEmail *string            `bigquery:"customer_email"`
	StatusFrom    *string            `bigquery:"status_from"`
	StatusTo      *string            `bigquery:"status_to"`
	TotalCents    *int64             `bigquery:"total_cents"`
	ItemCount     *int64             `bigquery:"item_count"`
	Restocked     *bool              `bigquery:"restocked"`
	Items         cbigquery.NullJSON `bigquery:"items"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}

// EncodeJSON serializes payload for a BigQuery JSON column.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	switch value := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case json.RawMessage:
		if len(value) == 0 {
			return cbigquery.NullJSON{}, nil
		}
		return cbigquery.NullJSON{Valid: true, JSONVal: string(value)}, nil
	}

	marshaled, err := json.Marshal(payload)
	if err != nil {
		return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(marshaled)}, nil
}

func toCents(amount decimal.Decimal) *int64 {
	cents := amount.Shift(2).Round(0).IntPart()
	return &cents
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
