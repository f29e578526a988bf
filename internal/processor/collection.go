// Package processor fetches configured collections and prepares everything
// the server needs: converted GeoJSON, a preview image and preview tiles.
package processor

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/geoson/internal/config"
	"github.com/woozymasta/geoson/pkg/geo"
	"github.com/woozymasta/geoson/pkg/geoson"

	"github.com/rs/zerolog/log"
)

// maxSourceSize bounds a downloaded GeoJSON document.
const maxSourceSize = 256 << 20

// ProcessCollection reads the collection source and stores it in the data
// directory using the configured output CRS. The stored file is reused unless
// force is set; a stored file in another CRS is rewritten from itself. The
// loaded collection is returned for preview rendering.
func ProcessCollection(client *http.Client, cfg *config.Config, col config.Collection, force bool) (*geo.FeatureCollection, error) {
	codec := cfg.Codec(col)
	destFile := cfg.CollectionFile(col.Name)

	if stored, err := os.ReadFile(destFile); err == nil && !force {
		return reuseStored(codec, cfg, col, destFile, stored)
	}

	log.Info().
		Str("collection", col.Name).
		Str("source", col.Path).
		Msg("Processing collection")

	data, err := fetchSource(client, col.Path)
	if err != nil {
		return nil, err
	}

	fc, err := codec.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", col.Path, err)
	}

	if err := os.MkdirAll(filepath.Dir(destFile), 0755); err != nil {
		return nil, err
	}
	if err := codec.Write(fc, destFile, cfg.OutputCRS); err != nil {
		return nil, err
	}

	log.Info().
		Str("collection", col.Name).
		Str("path", destFile).
		Stringer("crs", cfg.OutputCRS).
		Int("features", len(fc.Features)).
		Msg("Collection stored")

	return fc, nil
}

// reuseStored decodes an already stored collection and rewrites it when its
// CRS is not the configured output CRS.
func reuseStored(codec *geoson.Codec, cfg *config.Config, col config.Collection, destFile string, stored []byte) (*geo.FeatureCollection, error) {
	fc, err := codec.Parse(stored)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", destFile, err)
	}

	crs, err := geoson.DetectCRS(stored)
	if err == nil && crs == cfg.OutputCRS {
		log.Debug().Str("collection", col.Name).Msg("Collection file exists, reusing")
		return fc, nil
	}

	log.Info().
		Str("collection", col.Name).
		Stringer("from", crs).
		Stringer("to", cfg.OutputCRS).
		Msg("Stored collection CRS changed, rewriting")

	if err := codec.Write(fc, destFile, cfg.OutputCRS); err != nil {
		return nil, err
	}
	return fc, nil
}

// fetchSource returns the raw document from a local path or an http(s) URL.
func fetchSource(client *http.Client, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	log.Debug().Str("url", source).Msg("Downloading collection")
	resp, err := client.Get(source)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s failed: %d", source, resp.StatusCode)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, maxSourceSize+1))
	if err != nil {
		return nil, err
	}
	if n > maxSourceSize {
		return nil, fmt.Errorf("download %s failed: document larger than %d bytes", source, maxSourceSize)
	}

	return buf.Bytes(), nil
}
