package preview

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

// TileOptions controls the tile pyramid.
type TileOptions struct {
	ZoomLimit   int
	TileSize    int
	Quality     float32
	Concurrency int

	// Force rewrites tiles that already exist.
	Force bool
}

// TileCoordinate represents a specific tile.
type TileCoordinate struct {
	Z, X, Y int
}

// Path returns the tile location below baseDir as z/x/y.webp.
func (c TileCoordinate) Path(baseDir string) string {
	return filepath.Join(baseDir, strconv.Itoa(c.Z), strconv.Itoa(c.X), strconv.Itoa(c.Y)+".webp")
}

// Tiles slices src into a pyramid of WebP tiles under baseDir. Level z is a
// 2^z x 2^z grid made from src rescaled to fit. It returns the number of
// tiles written.
func Tiles(src image.Image, baseDir string, opts TileOptions) (int, error) {
	if opts.TileSize <= 0 {
		opts.TileSize = 256
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	var (
		mu      sync.Mutex
		errs    []error
		written int
	)

	for z := 0; z <= opts.ZoomLimit; z++ {
		gridSize := 1 << z
		totalPixels := gridSize * opts.TileSize

		log.Debug().
			Int("zoom", z).
			Int("grid", gridSize).
			Int("px", totalPixels).
			Msg("Processing zoom level")

		level := image.NewRGBA(image.Rect(0, 0, totalPixels, totalPixels))
		xdraw.CatmullRom.Scale(level, level.Bounds(), src, src.Bounds(), draw.Over, nil)

		var wg sync.WaitGroup
		sem := make(chan struct{}, opts.Concurrency)

		for x := range gridSize {
			for y := range gridSize {
				wg.Add(1)
				sem <- struct{}{}

				go func(coord TileCoordinate) {
					defer wg.Done()
					defer func() { <-sem }()

					outPath := coord.Path(baseDir)
					if !opts.Force {
						if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
							return
						}
					}

					rect := image.Rect(coord.X*opts.TileSize, coord.Y*opts.TileSize, (coord.X+1)*opts.TileSize, (coord.Y+1)*opts.TileSize)
					err := WriteWebP(outPath, level.SubImage(rect), opts.Quality)

					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						errs = append(errs, fmt.Errorf("tile %d/%d/%d: %w", coord.Z, coord.X, coord.Y, err))
						return
					}
					written++
				}(TileCoordinate{Z: z, X: x, Y: y})
			}
		}
		wg.Wait()
	}

	return written, errors.Join(errs...)
}
