package source

import (
	"encoding/json"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
)

// shapes are common media aspect ratios.
var shapes = []float64{1, 4.0 / 3, 3.0 / 2, 16.0 / 9, 21.0 / 9, 3.0 / 4, 2.0 / 3, 9.0 / 16}

// GenerateOptions configures [Generate].
type GenerateOptions struct {
	Count int
	Seed  int64

	// VideoShare and FrameShare are the fractions of items of those kinds.
	// The rest are images.
	VideoShare float64
	FrameShare float64

	// Jitter perturbs each aspect ratio by up to ±Jitter, relative.
	Jitter float64
}

// Validate checks o.
func (o GenerateOptions) Validate() error {
	if o.Count < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "count must not be negative, got %d", o.Count)
	}
	for _, s := range []float64{o.VideoShare, o.FrameShare, o.Jitter} {
		if s < 0 || s > 1 || math.IsNaN(s) {
			return errors.New(errors.ErrCodeInvalidInput, "shares and jitter must be within [0, 1], got %v", s)
		}
	}
	if o.VideoShare+o.FrameShare > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "video and frame shares exceed 1")
	}
	return nil
}

type mediaPayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Generate returns a synthetic dataset. The same options always produce the
// same items, ids included.
func Generate(opts GenerateOptions) ([]tile.Item, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	items := make([]tile.Item, opts.Count)
	for i := range items {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "generate id")
		}
		ar := shapes[rng.Intn(len(shapes))] * (1 + opts.Jitter*(2*rng.Float64()-1))

		kind := tile.KindImage
		switch r := rng.Float64(); {
		case r < opts.VideoShare:
			kind = tile.KindVideo
		case r < opts.VideoShare+opts.FrameShare:
			kind = tile.KindFrame
		}

		h := 1080
		payload, _ := json.Marshal(mediaPayload{Width: int(math.Round(ar * float64(h))), Height: h})
		items[i] = tile.Item{ID: id.String(), AspectRatio: ar, Kind: kind, Payload: payload}
	}
	return items, nil
}
