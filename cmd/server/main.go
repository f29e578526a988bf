package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/geoson/internal/config"
	"github.com/woozymasta/geoson/internal/logger"
	"github.com/woozymasta/geoson/internal/server"
	"github.com/woozymasta/geoson/pkg/geoson"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string      `short:"c" long:"config"     env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string      `short:"a" long:"addr"       env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	DataDir    string      `short:"d" long:"data-dir"   env:"DATA_DIR"       description:"Override data directory from config"`
	OutputCRS  *geoson.CRS `short:"o" long:"output-crs" env:"OUTPUT_CRS"     description:"Override default response CRS (ENU, EPSG:4326)"`
	Port       int         `short:"p" long:"port"       env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
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

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.OutputCRS != nil {
		cfg.OutputCRS = *opts.OutputCRS
	}

	srvCtx, err := server.NewServerContext(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	handler := server.RequestLogger(srvCtx.Routes())

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("collections_loaded", len(cfg.Collections)).
		Stringer("output_crs", cfg.OutputCRS).
		Msg("Web server started")

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
