// Package entity provides core domain entities shared by all workflows.
package entity

import (
	"context"
	"time"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Audit is the composed audit metadata value embedded in every entity:
// creator, timestamps, soft-delete flag and optimistic-lock version.
// Deliberately a value, not a base-class hierarchy.
type Audit struct {
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`

	// DeletionMark indicates a soft-deleted entity
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewAudit creates audit metadata stamped with the creating operator.
func NewAudit(operator string) Audit {
	now := time.Now().UTC()
	return Audit{
		CreatedAt: now,
		CreatedBy: operator,
		UpdatedAt: now,
		UpdatedBy: operator,
		Version:   1,
	}
}

// Touch updates the modification stamp and increments the version.
func (a *Audit) Touch(operator string) {
	a.UpdatedAt = time.Now().UTC()
	if operator != "" {
		a.UpdatedBy = operator
	}
	a.Version++
}

// MarkDeleted sets the deletion mark.
func (a *Audit) MarkDeleted() {
	a.DeletionMark = true
}

// Undelete clears the deletion mark.
func (a *Audit) Undelete() {
	a.DeletionMark = false
}

// SetVersion updates the version number (used by repositories after sync).
func (a *Audit) SetVersion(v int) {
	a.Version = v
}
