package processor

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/woozymasta/geoson/internal/config"
	"github.com/woozymasta/geoson/internal/preview"
	"github.com/woozymasta/geoson/pkg/geoson"
)

const fieldDoc = `{"type":"FeatureCollection",
	"properties":{"crs":"ENU","datum":[5,52,0],"heading":0},
	"features":[
		{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[40,0],[40,30],[0,30],[0,0]]]},"properties":{"type":"field"}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[10,10]},"properties":{"name":"well"}}
	]}`

func testConfig(t *testing.T, source string) (*config.Config, config.Collection) {
	t.Helper()
	yaml := "data_dir: " + t.TempDir() + "\nzoom: 1\npreview: {size: 64, tile_size: 32}\n" +
		"collections:\n  - name: home\n    path: " + source + "\n"
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatal(err)
	}
	return cfg, cfg.Collections[0]
}

func TestProcessCollectionFromFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "field.geojson")
	if err := os.WriteFile(src, []byte(fieldDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, col := testConfig(t, src)

	fc, err := ProcessCollection(http.DefaultClient, cfg, col, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("got %d features, want 2", len(fc.Features))
	}

	data, err := os.ReadFile(cfg.CollectionFile(col.Name))
	if err != nil {
		t.Fatal(err)
	}
	// Stored in the default output CRS.
	if got := gjson.GetBytes(data, "properties.crs").String(); got != "EPSG:4326" {
		t.Errorf("stored crs = %q", got)
	}

	// A second run reuses the stored file even if the source is gone.
	if err := os.Remove(src); err != nil {
		t.Fatal(err)
	}
	if _, err := ProcessCollection(http.DefaultClient, cfg, col, false); err != nil {
		t.Errorf("reuse failed: %v", err)
	}
	if _, err := ProcessCollection(http.DefaultClient, cfg, col, true); err == nil {
		t.Error("forced run should fail without a source")
	}
}

func TestProcessCollectionRewritesOnCRSChange(t *testing.T) {
	src := filepath.Join(t.TempDir(), "field.geojson")
	if err := os.WriteFile(src, []byte(fieldDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, col := testConfig(t, src)

	if _, err := ProcessCollection(http.DefaultClient, cfg, col, false); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(src); err != nil {
		t.Fatal(err)
	}

	cfg.OutputCRS = geoson.ENU
	fc, err := ProcessCollection(http.DefaultClient, cfg, col, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("got %d features, want 2", len(fc.Features))
	}

	data, err := os.ReadFile(cfg.CollectionFile(col.Name))
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(data, "properties.crs").String(); got != "ENU" {
		t.Errorf("stored crs = %q, want ENU", got)
	}
	// 40m east of the datum survives the WGS detour
	if x := gjson.GetBytes(data, "features.0.geometry.coordinates.0.1.0").Float(); x < 39.99 || x > 40.01 {
		t.Errorf("rewritten x = %g, want 40", x)
	}
}

func TestProcessCollectionFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/field.geojson" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(fieldDoc))
	}))
	defer srv.Close()

	cfg, col := testConfig(t, srv.URL+"/field.geojson")
	fc, err := ProcessCollection(srv.Client(), cfg, col, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("got %d features, want 2", len(fc.Features))
	}

	cfg, col = testConfig(t, srv.URL+"/missing.geojson")
	if _, err := ProcessCollection(srv.Client(), cfg, col, false); err == nil {
		t.Error("expected an error for a 404 source")
	}
}

func TestProcessCollectionInvalidDocument(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bad.geojson")
	if err := os.WriteFile(src, []byte(`{"type":"FeatureCollection","features":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, col := testConfig(t, src)

	if _, err := ProcessCollection(http.DefaultClient, cfg, col, false); err == nil {
		t.Fatal("expected a format error")
	}
	if _, err := os.Stat(cfg.CollectionFile(col.Name)); !os.IsNotExist(err) {
		t.Errorf("nothing should be stored, stat error = %v", err)
	}
}

func TestProcessPreviewAndTiles(t *testing.T) {
	src := filepath.Join(t.TempDir(), "field.geojson")
	if err := os.WriteFile(src, []byte(fieldDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, col := testConfig(t, src)

	fc, err := ProcessCollection(http.DefaultClient, cfg, col, false)
	if err != nil {
		t.Fatal(err)
	}

	if err := ProcessPreview(cfg, col, fc, false); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(cfg.PreviewFile(col.Name)); err != nil || info.Size() == 0 {
		t.Fatalf("preview missing: %v", err)
	}

	if err := ProcessTiles(cfg, col, fc, 2, false, false); err != nil {
		t.Fatal(err)
	}
	for _, c := range []preview.TileCoordinate{{Z: 0}, {Z: 1, X: 1, Y: 1}} {
		if _, err := os.Stat(c.Path(cfg.TilesDir(col.Name))); err != nil {
			t.Errorf("tile %v missing: %v", c, err)
		}
	}
	if _, err := os.Stat(preview.TileCoordinate{Z: 2}.Path(cfg.TilesDir(col.Name))); !os.IsNotExist(err) {
		t.Errorf("zoom 2 should not be generated, stat error = %v", err)
	}
}
