package main

import (
	"crypto/tls"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/geoson/internal/config"
	"github.com/woozymasta/geoson/internal/logger"
	"github.com/woozymasta/geoson/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"       env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	DataDir     string   `short:"d" long:"data-dir"     env:"DATA_DIR"     description:"Override data directory from config"`
	Limit       []string `short:"l" long:"limit"        env:"LIMIT_NAMES"  description:"Limit processing to specific collection names"`
	Concurrency int      `short:"p" long:"concurrency"  env:"CONCURRENCY"  description:"Tile encoding concurrency" default:"8"`
	ZoomLimit   int      `short:"z" long:"zoom-limit"   env:"ZOOM_LIMIT"   description:"Tiles zoom limit, used when the config sets none"`
	TilesOnly   bool     `short:"t" long:"tiles-only"   description:"Render previews and tiles only"`
	GeoJSONOnly bool     `short:"g" long:"geojson-only" description:"Convert GeoJSON only"`
	Force       bool     `short:"f" long:"force"        description:"Force overwrite of existing files"`
	FastCheck   bool     `short:"F" long:"fast-check"   description:"Skip tiling if the tiles directory exists"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.ZoomLimit > config.MaxZoomLimit {
		log.Fatal().Int("zoom", opts.ZoomLimit).Int("max", config.MaxZoomLimit).Msg("Zoom limit too deep")
	}
	if opts.ZoomLimit > 0 {
		for i := range cfg.Collections {
			if cfg.Collections[i].ZoomLimit == cfg.ZoomLimit {
				cfg.Collections[i].ZoomLimit = opts.ZoomLimit
			}
		}
		cfg.ZoomLimit = opts.ZoomLimit
	}

	processTiles := true
	processGeo := true
	if opts.TilesOnly && !opts.GeoJSONOnly {
		processGeo = false
	} else if opts.GeoJSONOnly && !opts.TilesOnly {
		processTiles = false
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
		},
		Timeout: 60 * time.Second,
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	// Filter collections if limit is set
	queue := cfg.Collections
	if len(opts.Limit) > 0 {
		queue = make([]config.Collection, 0)
		available := make(map[string]config.Collection)
		for _, c := range cfg.Collections {
			available[c.Name] = c
		}

		seen := make(map[string]bool)

		for _, limitName := range opts.Limit {
			if seen[limitName] {
				continue
			}
			seen[limitName] = true

			if c, ok := available[limitName]; ok {
				queue = append(queue, c)
			} else {
				log.Error().
					Str("name", limitName).
					Msg("Collection specified in --limit not found in configuration")
			}
		}
	}

	log.Info().
		Int("collections_total", len(cfg.Collections)).
		Int("collections_queued", len(queue)).
		Stringer("output_crs", cfg.OutputCRS).
		Bool("fast_check", opts.FastCheck).
		Msg("Starting loader")

	failed := 0
	for _, col := range queue {
		// Tiles are rendered from the stored file, so it is only rewritten
		// when GeoJSON processing is requested.
		fc, err := processor.ProcessCollection(client, cfg, col, opts.Force && processGeo)
		if err != nil {
			log.Error().Err(err).Str("collection", col.Name).Msg("Failed to process collection")
			failed++
			continue
		}

		if !processTiles {
			continue
		}

		if err := processor.ProcessPreview(cfg, col, fc, opts.Force); err != nil {
			log.Error().Err(err).Str("collection", col.Name).Msg("Failed to render preview")
			failed++
		}
		if err := processor.ProcessTiles(cfg, col, fc, opts.Concurrency, opts.Force, opts.FastCheck); err != nil {
			log.Error().Err(err).Str("collection", col.Name).Msg("Failed to render tiles")
			failed++
		}
	}

	if failed > 0 {
		log.Fatal().Int("failed", failed).Msg("Loader finished with errors")
	}
	log.Info().Msg("Loader finished successfully")
}
