package domain

import "time"

// AuditFields holds standard audit information for domain entities.
// Version is bumped on every persisted change and used for optimistic locking.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
	Version       int64     `json:"version"`
}

// touch returns a copy of the audit fields stamped for an update.
func (a AuditFields) touch(operator string, now time.Time) AuditFields {
	a.LastUpdatedAt = now
	a.LastUpdatedBy = operator
	return a
}

// NewAuditFields stamps creation and update fields with the same operator and time.
func NewAuditFields(operator string, now time.Time) AuditFields {
	return AuditFields{
		CreatedAt:     now,
		CreatedBy:     operator,
		LastUpdatedAt: now,
		LastUpdatedBy: operator,
	}
}
