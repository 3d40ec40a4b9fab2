package models

import (
	"encoding/json"
	"time"
)

// Reconciliation is a row of the reconciliations table. The shared header
// lives in columns for filtering; Payload holds the full variant as JSON.
type Reconciliation struct {
	ID        string          `db:"id"`
	UnitKey   string          `db:"unit_key"`
	Kind      string          `db:"kind"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
	Payload   json.RawMessage `db:"payload"`
	Version   int64           `db:"version"`
}
