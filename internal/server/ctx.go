package server

import (
	"bytes"
	"fmt"
	"html/template"
	"image"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"

	"github.com/woozymasta/geoson/internal/config"
	"github.com/woozymasta/geoson/internal/preview"
	"github.com/woozymasta/geoson/internal/server/assets"
	"github.com/woozymasta/geoson/pkg/geoson"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config          *config.Config
	NameResolver    map[string]string
	Collections     map[string]config.Collection
	IndexHTML       []byte
	TransparentTile []byte
}

type indexData struct {
	CSS         template.CSS
	OutputCRS   geoson.CRS
	Collections []config.Collection
}

// NewServerContext initializes the context from the configuration.
// Collections the loader has not stored yet are left out.
func NewServerContext(cfg *config.Config) (*ServerContext, error) {
	log.Info().Int("config_collections_count", len(cfg.Collections)).Msg("Initializing server context")

	resolver := make(map[string]string)
	byName := make(map[string]config.Collection)
	valid := make([]config.Collection, 0, len(cfg.Collections))

	for _, col := range cfg.Collections {
		path := cfg.CollectionFile(col.Name)
		if _, err := os.Stat(path); err != nil {
			log.Warn().
				Str("collection", col.Name).
				Str("path", path).
				Msg("Skipping collection: not loaded yet")
			continue
		}

		resolver[col.Name] = col.Name
		for _, alias := range col.Aliases {
			resolver[alias] = col.Name
		}
		byName[col.Name] = col

		log.Debug().
			Str("collection", col.Name).
			Strs("aliases", col.Aliases).
			Msg("Collection added to context")

		valid = append(valid, col)
	}

	sort.Slice(valid, func(i, j int) bool {
		idxI, idxJ := 999999, 999999
		if valid[i].Index != nil {
			idxI = *valid[i].Index
		}
		if valid[j].Index != nil {
			idxJ = *valid[j].Index
		}
		if idxI != idxJ {
			return idxI < idxJ
		}

		return valid[i].Name < valid[j].Name
	})
	cfg.Collections = valid

	index, err := renderIndex(cfg)
	if err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}

	tileSize := cfg.Preview.TileSize
	if tileSize <= 0 {
		tileSize = config.DefaultTileSize
	}
	var tile bytes.Buffer
	if err := preview.EncodeWebP(&tile, image.NewNRGBA(image.Rect(0, 0, tileSize, tileSize)), cfg.Preview.Quality); err != nil {
		return nil, fmt.Errorf("encode transparent tile: %w", err)
	}

	log.Info().
		Int("valid_collections_count", len(valid)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:          cfg,
		NameResolver:    resolver,
		Collections:     byName,
		IndexHTML:       index,
		TransparentTile: tile.Bytes(),
	}, nil
}

// renderIndex executes the index template and minifies the result.
func renderIndex(cfg *config.Config) ([]byte, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)

	cssMin, err := m.String("text/css", assets.Style)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("index").Parse(assets.IndexTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, indexData{
		CSS:         template.CSS(cssMin),
		OutputCRS:   cfg.OutputCRS,
		Collections: cfg.Collections,
	})
	if err != nil {
		return nil, err
	}

	return m.Bytes("text/html", buf.Bytes())
}
