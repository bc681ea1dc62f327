package slot

import (
	"context"
	"errors"
	"fmt"
)

type RenamedSlot struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NormalizeLegacyNames renames slots still carrying legacy names (A1..A10,
// P1..P10) to the zero-padded P01..P10 form. Slots whose target name is
// already taken are skipped to avoid unique conflicts.
func NormalizeLegacyNames(ctx context.Context, repo Repository) ([]RenamedSlot, error) {
	renamed := []RenamedSlot{}

	for i := 1; i <= 10; i++ {
		target := fmt.Sprintf("P%02d", i)
		for _, old := range []string{fmt.Sprintf("A%d", i), fmt.Sprintf("P%d", i)} {
			if old == target {
				continue
			}

			s, err := repo.GetByName(ctx, old)
			if errors.Is(err, ErrSlotNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("look up slot %s: %w", old, err)
			}

			if _, err := repo.GetByName(ctx, target); err == nil {
				continue
			} else if !errors.Is(err, ErrSlotNotFound) {
				return nil, fmt.Errorf("look up slot %s: %w", target, err)
			}

			if err := repo.Rename(ctx, s.ID, target); err != nil {
				if errors.Is(err, ErrSlotExists) {
					continue
				}
				return nil, fmt.Errorf("rename slot %s: %w", old, err)
			}
			renamed = append(renamed, RenamedSlot{From: old, To: target})
		}
	}

	return renamed, nil
}
