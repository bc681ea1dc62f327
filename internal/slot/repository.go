package slot

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound = errors.New("slot not found")
	ErrSlotExists   = errors.New("slot name already exists")
)

// Repository contains all DB interactions needed for the slot catalog.
type Repository interface {
	List(ctx context.Context) ([]Slot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	GetByName(ctx context.Context, name string) (*Slot, error)

	Create(ctx context.Context, s Slot) (*Slot, error)
	Rename(ctx context.Context, id uuid.UUID, newName string) error
	UpdateLocation(ctx context.Context, id uuid.UUID, location string) error
}
