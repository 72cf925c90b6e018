// Package optimizer shrinks catalog items until their serialized form fits a
// payload budget.
//
// Optimization is a ladder, applied in order until the item fits:
//
//  1. Recompress the image at decreasing resolutions and JPEG qualities.
//  2. Drop the image entirely, recording that it was dropped.
//  3. Reduce the item to its minimal representation: id, name (truncated),
//     price and availability.
//
// Every rung preserves the fields a later rung still needs, so the ladder is
// monotonic: a step never produces a larger payload than the previous one.
package optimizer

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/models"
)

// maxMinimalNameLen bounds the item name in the minimal representation.
const maxMinimalNameLen = 100

// compressionStep is one rung of the image recompression ladder.
type compressionStep struct {
	maxWidth int
	quality  int
}

// ladder is ordered from mildest to most aggressive.
var ladder = []compressionStep{
	{maxWidth: 800, quality: 70},
	{maxWidth: 600, quality: 50},
	{maxWidth: 400, quality: 40},
}

// Optimizer reduces item payloads to fit a serialized-size budget.
type Optimizer struct {
	budget int
	logger *logger.Logger
}

// NewOptimizer creates an optimizer targeting the given serialized-size budget
// in bytes.
func NewOptimizer(budget int, logger *logger.Logger) *Optimizer {
	return &Optimizer{budget: budget, logger: logger}
}

// Budget returns the serialized-size budget in bytes.
func (o *Optimizer) Budget() int {
	return o.budget
}

// Fits reports whether the item's serialized form is within the budget.
func (o *Optimizer) Fits(item models.Item) bool {
	return SerializedSize(item) <= o.budget
}

// Optimize walks the image recompression ladder until the item fits the
// budget. Items already within budget are returned unchanged. An image that
// cannot be decoded is dropped outright: delivering the item without its image
// beats failing on a corrupt one. When even the most aggressive rung leaves
// the item over budget, the smallest achieved form is returned; the caller
// decides whether to escalate to [Optimizer.DropImage].
func (o *Optimizer) Optimize(item models.Item) models.Item {
	if o.Fits(item) {
		return item
	}
	if item.Image == "" {
		return item
	}

	raw, err := base64.StdEncoding.DecodeString(item.Image)
	if err != nil {
		o.logger.Warn().
			Str("item_id", item.ID).
			Err(err).
			Msg("image is not valid base64, dropping it")
		return o.DropImage(item)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		o.logger.Warn().
			Str("item_id", item.ID).
			Err(err).
			Msg("image cannot be decoded, dropping it")
		return o.DropImage(item)
	}

	best := item
	for _, step := range ladder {
		encoded, ok := recompress(img, step)
		if !ok {
			continue
		}
		// never grow the payload: a tiny original can beat a recompression
		if len(encoded) >= len(best.Image) {
			continue
		}

		best.Image = encoded
		if o.Fits(best) {
			o.logger.Debug().
				Str("item_id", item.ID).
				Int("width", step.maxWidth).
				Int("quality", step.quality).
				Int("size", SerializedSize(best)).
				Msg("image recompressed within budget")
			return best
		}
	}

	return best
}

// DropImage removes the item's image and records the drop so the application
// can tell the user the image was sacrificed to get the data through.
func (o *Optimizer) DropImage(item models.Item) models.Item {
	item.Image = ""
	item.ImageDropped = true
	return item
}

// Minimal reduces the item to the fields that must reach the remote store no
// matter what: id, name (truncated), price and availability. The image is
// dropped and the description cleared.
func (o *Optimizer) Minimal(item models.Item) models.Item {
	item = o.DropImage(item)
	item.Description = ""
	item.Name = truncateRunes(item.Name, maxMinimalNameLen)
	return item
}

// SerializedSize returns the length in bytes of the item's JSON wire form.
func SerializedSize(item models.Item) int {
	payload, err := json.Marshal(item)
	if err != nil {
		return 0
	}
	return len(payload)
}

func recompress(img image.Image, step compressionStep) (string, bool) {
	scaled := img
	if img.Bounds().Dx() > step.maxWidth {
		scaled = imaging.Resize(img, step.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(step.quality)); err != nil {
		return "", false
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), true
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
