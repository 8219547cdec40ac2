package publish

import (
	"context"
	"fmt"
	"math/rand"

	"postforge/internal/store"
)

// MediaPicker selects a featured image from a fixed media pool.
type MediaPicker struct {
	media store.MediaStore
	intn  func(n int) int
}

// NewMediaPicker builds a picker over the media store.
func NewMediaPicker(media store.MediaStore) *MediaPicker {
	return &MediaPicker{media: media, intn: rand.Intn}
}

// Pick returns one random item from the given media IDs. Unknown IDs
// are skipped; an empty pool is an error so the caller can fall back.
func (p *MediaPicker) Pick(ctx context.Context, ids []string) (*FeaturedImage, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("publish: media pool is empty")
	}

	items, err := p.media.GetMediaByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("publish: failed to load media items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("publish: none of the %d media IDs resolved", len(ids))
	}

	item := items[p.intn(len(items))]
	return &FeaturedImage{MediaID: item.ID, URL: item.URL, AltText: item.AltText}, nil
}
