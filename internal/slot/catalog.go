package slot

import (
	"context"
	"errors"
	"fmt"
)

// EnsureCatalog creates the given slots if missing and keeps the location of
// existing ones current. Safe to run on every seed.
func EnsureCatalog(ctx context.Context, repo Repository, slots []Slot) error {
	for _, s := range slots {
		_, err := repo.Create(ctx, s)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrSlotExists) {
			return fmt.Errorf("create slot %s: %w", s.Name, err)
		}

		existing, err := repo.GetByName(ctx, s.Name)
		if err != nil {
			return fmt.Errorf("look up slot %s: %w", s.Name, err)
		}
		if existing.Location != s.Location {
			if err := repo.UpdateLocation(ctx, existing.ID, s.Location); err != nil {
				return fmt.Errorf("update slot %s location: %w", s.Name, err)
			}
		}
	}

	return nil
}
