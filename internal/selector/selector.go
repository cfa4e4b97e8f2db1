// Package selector filters extracted sources down to the depth quota and
// assigns citation indices.
package selector

import (
	"errors"

	"github.com/skimlab/deepresearch/internal/models"
)

// ErrNoUsableSources means candidates were discovered but none survived
// extraction and filtering. It is distinct from a discovery failure.
var ErrNoUsableSources = errors.New("no usable sources after extraction")

// Select keeps usable sources in their original discovery order (no
// re-ranking by length), takes at most quota of them, and assigns citation
// indices 1..k in the order kept. Fewer than quota survivors is fine; zero
// survivors is ErrNoUsableSources.
func Select(extracted []models.ExtractedSource, quota, minLen int) ([]models.SelectedSource, error) {
	selected := make([]models.SelectedSource, 0, quota)
	for _, src := range extracted {
		if !src.Usable(minLen) {
			continue
		}
		selected = append(selected, models.SelectedSource{
			ExtractedSource: src,
			Index:           len(selected) + 1,
		})
		if len(selected) == quota {
			break
		}
	}
	if len(selected) == 0 {
		return nil, ErrNoUsableSources
	}
	return selected, nil
}
