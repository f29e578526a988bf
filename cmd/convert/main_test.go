package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/geoson/pkg/geoson"
)

const doc = `{"type":"FeatureCollection",
	"properties":{"crs":"ENU","datum":[5,52,0],"heading":2,"farm":"north"},
	"features":[
		{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0,0],[20,0,0],[20,10,0],[0,10,0],[0,0,0]]]},"properties":{"type":"field"}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1.5,2,0]},"properties":{"type":"marker"}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4,0]},"properties":{"type":"marker"}}
	]}`

func TestRunJSON(t *testing.T) {
	var out bytes.Buffer
	opts := Options{CRS: geoson.ENU, Format: "json"}
	if err := run(opts, strings.NewReader(doc), &out); err != nil {
		t.Fatal(err)
	}

	if got := gjson.GetBytes(out.Bytes(), "properties.farm").String(); got != "north" {
		t.Errorf("farm = %q", got)
	}
	if got := gjson.GetBytes(out.Bytes(), "features.1.geometry.coordinates").Raw; got != "[1.5,2,0]" {
		t.Errorf("coordinates = %s", got)
	}
}

func TestRunYAML(t *testing.T) {
	var out bytes.Buffer
	opts := Options{CRS: geoson.ENU, Format: "yaml"}
	if err := run(opts, strings.NewReader(doc), &out); err != nil {
		t.Fatal(err)
	}

	text := out.String()
	if !strings.HasPrefix(text, "type: FeatureCollection\nproperties:\n") {
		t.Errorf("member order lost:\n%s", text)
	}
	if !strings.Contains(text, "coordinates: [1.5, 2, 0]") {
		t.Errorf("positions should be flow sequences:\n%s", text)
	}

	var back struct {
		Properties struct {
			CRS     string    `yaml:"crs"`
			Datum   []float64 `yaml:"datum"`
			Heading int       `yaml:"heading"`
		} `yaml:"properties"`
		Features []map[string]any `yaml:"features"`
	}
	if err := yaml.Unmarshal(out.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
	if back.Properties.CRS != "ENU" || back.Properties.Heading != 2 || len(back.Properties.Datum) != 3 || len(back.Features) != 3 {
		t.Errorf("decoded = %+v", back)
	}
}

func TestRunToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.geojson")
	outPath := filepath.Join(dir, "out.geojson")
	if err := os.WriteFile(in, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := Options{Input: in, Output: outPath, CRS: geoson.WGS, Format: "json", Indent: true}
	if err := run(opts, nil, nil); err != nil {
		t.Fatal(err)
	}

	fc, err := geoson.Read(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 3 || fc.Properties["farm"] != "north" {
		t.Errorf("read back %d features, properties %v", len(fc.Features), fc.Properties)
	}
}

func TestRunBareGeometryUsesDatumFlags(t *testing.T) {
	var out bytes.Buffer
	opts := Options{CRS: geoson.ENU, Format: "json", DatumLat: 52, DatumLon: 5}
	if err := run(opts, strings.NewReader(`{"type":"Point","coordinates":[5,52]}`), &out); err != nil {
		t.Fatal(err)
	}

	if got := gjson.GetBytes(out.Bytes(), "properties.datum").Raw; got != "[5,52,0]" {
		t.Errorf("datum = %s", got)
	}
	coords := gjson.GetBytes(out.Bytes(), "features.0.geometry.coordinates").Array()
	for i, c := range coords {
		if c.Num > 1e-6 || c.Num < -1e-6 {
			t.Errorf("coordinate %d = %v, want 0", i, c.Num)
		}
	}
}

func TestRunInfo(t *testing.T) {
	tests := []struct {
		name  string
		field bool
		want  []string
	}{
		{"collection", false, []string{"DATUM: 52, 5, 0", "HEADING: 2", "FEATURES: 3", "POLYGON", "POINT"}},
		{"field", true, []string{"FEATURES: 3", "FIELD AREA: 200.00 m2", "ELEMENTS: 2", "marker: 2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			opts := Options{Format: "json", Info: true, Field: tt.field}
			if err := run(opts, strings.NewReader(doc), &out); err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("summary lacks %q:\n%s", w, out.String())
				}
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	if err := run(Options{Format: "json"}, strings.NewReader(`{"type":"FeatureCollection"}`), &bytes.Buffer{}); !errors.Is(err, geoson.ErrFormat) {
		t.Errorf("error = %v, want ErrFormat", err)
	}

	opts := Options{Input: filepath.Join(t.TempDir(), "missing.geojson"), Format: "json"}
	if err := run(opts, nil, &bytes.Buffer{}); !errors.Is(err, geoson.ErrIO) {
		t.Errorf("error = %v, want ErrIO", err)
	}
}
