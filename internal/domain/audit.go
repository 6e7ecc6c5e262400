package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// AuditEntry is an immutable record of one mutation. Before is nil for
// creates, After is nil for deletes.
type AuditEntry struct {
	ID         string          `json:"id"`
	SeriesID   string          `json:"seriesId"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     AuditAction     `json:"action"`
	ActorID    string          `json:"actorId"`
	Timestamp  time.Time       `json:"timestamp"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	// Seq is the store's insertion sequence; it breaks Timestamp ties.
	Seq int64 `json:"-"`
}

// NewAuditEntry snapshots before and after as JSON. A nil snapshot is omitted.
func NewAuditEntry(seriesID string, et EntityType, entityID string, action AuditAction, actorID string, before, after any) (AuditEntry, error) {
	b, err := snapshot(before)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("audit before snapshot: %w", err)
	}
	a, err := snapshot(after)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("audit after snapshot: %w", err)
	}
	return AuditEntry{
		SeriesID:   seriesID,
		EntityType: et,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Before:     b,
		After:      a,
	}, nil
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// AuditFilter selects audit entries of a series, optionally narrowed to one entity.
type AuditFilter struct {
	SeriesID   string
	EntityType EntityType
	EntityID   string
}
