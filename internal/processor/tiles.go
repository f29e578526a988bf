package processor

import (
	"os"

	"github.com/woozymasta/geoson/internal/config"
	"github.com/woozymasta/geoson/internal/preview"
	"github.com/woozymasta/geoson/pkg/geo"

	"github.com/rs/zerolog/log"
)

// maxTileSource caps the side of the image the pyramid is cut from.
const maxTileSource = 8192

// ProcessPreview renders the preview image of a collection.
func ProcessPreview(cfg *config.Config, col config.Collection, fc *geo.FeatureCollection, force bool) error {
	path := cfg.PreviewFile(col.Name)
	if !force {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			log.Debug().Str("collection", col.Name).Msg("Preview exists, skipping")
			return nil
		}
	}

	img := preview.Render(fc, preview.Options{Size: cfg.Preview.Size, Padding: cfg.Preview.Padding})
	if err := preview.WriteWebP(path, img, cfg.Preview.Quality); err != nil {
		return err
	}

	log.Info().Str("collection", col.Name).Str("path", path).Msg("Preview rendered")
	return nil
}

// ProcessTiles renders a collection at full pyramid resolution and slices it
// into z/x/y.webp tiles.
func ProcessTiles(cfg *config.Config, col config.Collection, fc *geo.FeatureCollection, concurrency int, force, fastCheck bool) error {
	baseDir := cfg.TilesDir(col.Name)

	if fastCheck {
		if _, err := os.Stat(baseDir); err == nil {
			log.Info().
				Str("collection", col.Name).
				Msg("Tiles directory exists, skipping (fast-check)")

			return nil
		}
	}

	zoomLimit := col.ZoomLimit
	if zoomLimit <= 0 {
		zoomLimit = cfg.ZoomLimit
	}

	// Render once at the deepest level; shallower ones are downscaled.
	size := min(cfg.Preview.TileSize<<zoomLimit, maxTileSource)
	padding := 0
	if cfg.Preview.Size > 0 {
		padding = cfg.Preview.Padding * size / cfg.Preview.Size
	}
	src := preview.Render(fc, preview.Options{Size: size, Padding: padding})

	log.Info().
		Str("collection", col.Name).
		Int("zoom", zoomLimit).
		Int("px", size).
		Msg("Starting tiling")

	n, err := preview.Tiles(src, baseDir, preview.TileOptions{
		ZoomLimit:   zoomLimit,
		TileSize:    cfg.Preview.TileSize,
		Quality:     cfg.Preview.Quality,
		Concurrency: concurrency,
		Force:       force,
	})

	log.Info().Str("collection", col.Name).Int("tiles", n).Msg("Tiling finished")
	return err
}
