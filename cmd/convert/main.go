package main

import (
	"fmt"
	"io"
	"os"

	"github.com/woozymasta/geoson/internal/logger"
	"github.com/woozymasta/geoson/pkg/field"
	"github.com/woozymasta/geoson/pkg/geo"
	"github.com/woozymasta/geoson/pkg/geoson"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input    string     `short:"i" long:"in"        description:"Input GeoJSON file path. Reads from stdin if empty"`
	Output   string     `short:"o" long:"out"       description:"Output file path. Writes to stdout if empty"`
	CRS      geoson.CRS `short:"c" long:"crs"       description:"Output CRS (EPSG:4326, WGS84, WGS, ENU, ECEF)" default:"EPSG:4326"`
	Format   string     `short:"f" long:"format"    description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Indent   bool       `short:"I" long:"indent"    description:"Pretty-print JSON output"`
	Info     bool       `long:"info"                description:"Print a summary instead of the document"`
	Field    bool       `long:"field"               description:"With --info, summarize the document as a field"`
	DatumLat float64    `long:"datum-lat"           description:"Datum latitude for bare Feature or geometry input"`
	DatumLon float64    `long:"datum-lon"           description:"Datum longitude for bare Feature or geometry input"`
	DatumAlt float64    `long:"datum-alt"           description:"Datum altitude for bare Feature or geometry input"`
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

	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Conversion failed")
	}
}

func run(opts Options, stdin io.Reader, stdout io.Writer) error {
	codec := &geoson.Codec{
		Indent:       opts.Indent,
		DefaultDatum: geo.Datum{Latitude: opts.DatumLat, Longitude: opts.DatumLon, Altitude: opts.DatumAlt},
	}

	var (
		fc  *geo.FeatureCollection
		err error
	)
	if opts.Input != "" {
		fc, err = codec.Read(opts.Input)
	} else {
		var data []byte
		if data, err = io.ReadAll(stdin); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		fc, err = codec.Parse(data)
	}
	if err != nil {
		return err
	}

	if opts.Info {
		return writeOutput(opts.Output, stdout, []byte(summary(fc, opts.Field)))
	}

	if opts.Output != "" && opts.Format == "json" {
		if err := codec.Write(fc, opts.Output, opts.CRS); err != nil {
			return err
		}
		log.Info().
			Int("features", len(fc.Features)).
			Str("path", opts.Output).
			Stringer("crs", opts.CRS).
			Msg("Successfully converted")
		return nil
	}

	out, err := codec.Marshal(fc, opts.CRS)
	if err != nil {
		return err
	}
	if opts.Format == "yaml" {
		if out, err = jsonToYAML(out); err != nil {
			return err
		}
	}

	return writeOutput(opts.Output, stdout, out)
}

// summary describes the collection, or the field built from it.
func summary(fc *geo.FeatureCollection, asField bool) string {
	if !asField {
		return fc.String()
	}

	fld, err := field.FromCollection(fc)
	if err != nil {
		return fmt.Sprintf("%sFIELD: %v\n", fc.String(), err)
	}

	s := fmt.Sprintf("%sFIELD AREA: %.2f m2\nELEMENTS: %d\n", fc.String(), fld.Area(), len(fld.Elements))
	counts := map[string]int{}
	var order []string
	for _, e := range fld.Elements {
		if counts[e.Type] == 0 {
			order = append(order, e.Type)
		}
		counts[e.Type]++
	}
	for _, typ := range order {
		s += fmt.Sprintf("  %s: %d\n", typ, counts[typ])
	}
	return s
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &geoson.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
