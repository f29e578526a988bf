// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/geoson/pkg/geo"
	"github.com/woozymasta/geoson/pkg/geoson"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load for zero values.
const (
	DefaultDataDir        = "data"
	DefaultZoomLimit      = 4
	DefaultPreviewSize    = 1024
	DefaultPreviewQuality = 85
	DefaultPreviewPadding = 16
	DefaultTileSize       = 256

	// MaxZoomLimit bounds the tile pyramid depth.
	MaxZoomLimit = 10
)

// Config represents the root configuration file structure.
type Config struct {
	Collections []Collection `yaml:"collections" json:"collections"`
	Preview     Preview      `yaml:"preview" json:"-"`
	DataDir     string       `yaml:"data_dir,omitempty" json:"-"`
	OutputCRS   geoson.CRS   `yaml:"output_crs,omitempty" json:"output_crs"`
	ZoomLimit   int          `yaml:"zoom,omitempty" json:"zoom"`
	Indent      bool         `yaml:"indent,omitempty" json:"-"`
}

// Preview controls rendering of preview images and tiles.
type Preview struct {
	Size     int     `yaml:"size,omitempty"`
	Quality  float32 `yaml:"quality,omitempty"`
	Padding  int     `yaml:"padding,omitempty"`
	TileSize int     `yaml:"tile_size,omitempty"`
}

// Collection is one GeoJSON document served by name.
type Collection struct {
	Index *int `yaml:"index,omitempty" json:"index,omitempty"`

	// Datum anchors a source that is a bare Feature or geometry.
	Datum *geo.Datum `yaml:"datum,omitempty" json:"-"`

	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`

	// Path is a local file or an http(s) URL.
	Path      string   `yaml:"path" json:"-"`
	Aliases   []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	ZoomLimit int      `yaml:"zoom,omitempty" json:"zoom"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes a YAML configuration, fills defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.ZoomLimit <= 0 {
		c.ZoomLimit = DefaultZoomLimit
	}
	if c.Preview.Size <= 0 {
		c.Preview.Size = DefaultPreviewSize
	}
	if c.Preview.Quality <= 0 {
		c.Preview.Quality = DefaultPreviewQuality
	}
	if c.Preview.Padding < 0 {
		c.Preview.Padding = 0
	} else if c.Preview.Padding == 0 {
		c.Preview.Padding = DefaultPreviewPadding
	}
	if c.Preview.TileSize <= 0 {
		c.Preview.TileSize = DefaultTileSize
	}

	for i := range c.Collections {
		if c.Collections[i].ZoomLimit <= 0 {
			c.Collections[i].ZoomLimit = c.ZoomLimit
		}
	}
}

func (c *Config) validate() error {
	if c.ZoomLimit > MaxZoomLimit {
		return fmt.Errorf("zoom %d exceeds maximum %d", c.ZoomLimit, MaxZoomLimit)
	}

	seen := make(map[string]string)
	for i, col := range c.Collections {
		if col.Name == "" {
			return fmt.Errorf("collection %d: name is required", i)
		}
		if col.Path == "" {
			return fmt.Errorf("collection %q: path is required", col.Name)
		}
		if col.ZoomLimit > MaxZoomLimit {
			return fmt.Errorf("collection %q: zoom %d exceeds maximum %d", col.Name, col.ZoomLimit, MaxZoomLimit)
		}

		for _, name := range append([]string{col.Name}, col.Aliases...) {
			if strings.ContainsAny(name, `/\.`) {
				return fmt.Errorf("collection %q: invalid name or alias %q", col.Name, name)
			}
			if owner, ok := seen[name]; ok {
				return fmt.Errorf("collection %q: name %q already used by %q", col.Name, name, owner)
			}
			seen[name] = col.Name
		}
	}

	return nil
}

// Codec returns a GeoJSON codec for the collection.
func (c *Config) Codec(col Collection) *geoson.Codec {
	codec := &geoson.Codec{Indent: c.Indent}
	if col.Datum != nil {
		codec.DefaultDatum = *col.Datum
	}
	return codec
}

// Output layout below DataDir, shared by the loader and the server.
const (
	CollectionFileName = "collection.geojson"
	PreviewFileName    = "preview.webp"
	TilesDirName       = "tiles"
)

// Dir returns the output directory of the named collection.
func (c *Config) Dir(name string) string {
	return filepath.Join(c.DataDir, name)
}

// CollectionFile returns where the converted GeoJSON of name is stored.
func (c *Config) CollectionFile(name string) string {
	return filepath.Join(c.Dir(name), CollectionFileName)
}

// PreviewFile returns where the preview image of name is stored.
func (c *Config) PreviewFile(name string) string {
	return filepath.Join(c.Dir(name), PreviewFileName)
}

// TilesDir returns the root of the tile pyramid of name.
func (c *Config) TilesDir(name string) string {
	return filepath.Join(c.Dir(name), TilesDirName)
}
