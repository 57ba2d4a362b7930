// Package audit records workflow state transitions as an append-only trail.
// Every successful transition of an order produces one entry with the full
// order payload captured at that moment, so a reviewer can replay how a
// document reached its current state.
package audit

import (
	"context"
	"time"

	"kardex/internal/core/id"
)

// Entry is a single recorded transition.
type Entry struct {
	EntryID    id.ID
	EntityType string
	EntityID   id.ID
	FromStatus string
	ToStatus   string
	Operator   string
	OccurredAt time.Time
	// Payload holds the serialized entity state after the transition.
	// Storage backends may compress it.
	Payload []byte
}

// Trail records and reads transition entries.
type Trail interface {
	Record(ctx context.Context, entry Entry) error
	ListByEntity(ctx context.Context, entityType string, entityID id.ID) ([]Entry, error)
}

// NopTrail discards everything. Used when the trail is disabled.
type NopTrail struct{}

func (NopTrail) Record(ctx context.Context, entry Entry) error { return nil }

func (NopTrail) ListByEntity(ctx context.Context, entityType string, entityID id.ID) ([]Entry, error) {
	return nil, nil
}

var _ Trail = NopTrail{}

// NewEntry builds an Entry for a completed transition.
func NewEntry(entityType string, entityID id.ID, from, to, operator string, payload []byte) Entry {
	return Entry{
		EntryID:    id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		FromStatus: from,
		ToStatus:   to,
		Operator:   operator,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
