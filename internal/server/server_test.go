package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	xwebp "golang.org/x/image/webp"

	"github.com/woozymasta/geoson/internal/config"
	"github.com/woozymasta/geoson/internal/preview"
	"github.com/woozymasta/geoson/pkg/geo"
	"github.com/woozymasta/geoson/pkg/geoson"
)

func newTestServer(t *testing.T) (*ServerContext, http.Handler) {
	t.Helper()

	yaml := "data_dir: " + t.TempDir() + "\nzoom: 1\npreview: {tile_size: 16}\ncollections:\n" +
		"  - name: ghost\n    path: ghost.geojson\n    index: 1\n" +
		"  - name: home\n    path: home.geojson\n    title: Home field\n    aliases: [farm]\n    index: 2\n"
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatal(err)
	}

	fc := geo.NewFeatureCollection(geo.Datum{Latitude: 52, Longitude: 5}, geo.Heading{Yaw: 3})
	fc.Add(geo.Polygon{{X: 0, Y: 0, Z: 0}, {X: 30, Y: 0, Z: 0}, {X: 30, Y: 20, Z: 0}, {X: 0, Y: 20, Z: 0}}, map[string]string{"type": "field"})
	fc.Add(geo.Point{X: 5, Y: 5}, map[string]string{"name": "well"})

	if err := os.MkdirAll(cfg.Dir("home"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := geoson.WriteAs(fc, cfg.CollectionFile("home"), cfg.OutputCRS); err != nil {
		t.Fatal(err)
	}
	img := preview.Render(fc, preview.Options{Size: 32})
	if err := preview.WriteWebP(cfg.PreviewFile("home"), img, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := preview.Tiles(img, cfg.TilesDir("home"), preview.TileOptions{ZoomLimit: 1, TileSize: 16}); err != nil {
		t.Fatal(err)
	}

	srv, err := NewServerContext(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return srv, RequestLogger(srv.Routes())
}

func get(h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCollectionsList(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(h, "/api/collections")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var list []config.Collection
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	// ghost has no stored file and is left out.
	if len(list) != 1 || list[0].Name != "home" || list[0].ZoomLimit != 1 {
		t.Errorf("list = %+v", list)
	}
	if strings.Contains(rec.Body.String(), "home.geojson") {
		t.Errorf("source path leaked: %s", rec.Body)
	}
}

func TestGeoJSON(t *testing.T) {
	_, h := newTestServer(t)

	tests := []struct {
		name    string
		target  string
		status  int
		wantCRS string
	}{
		{"default crs", "/collections/home.geojson", http.StatusOK, "EPSG:4326"},
		{"alias", "/collections/farm.geojson", http.StatusOK, "EPSG:4326"},
		{"enu", "/collections/home.geojson?crs=ENU", http.StatusOK, "ENU"},
		{"crs alias", "/collections/home.geojson?crs=ECEF", http.StatusOK, "ENU"},
		{"wgs alias", "/collections/home.geojson?crs=WGS84", http.StatusOK, "EPSG:4326"},
		{"unknown crs", "/collections/home.geojson?crs=EPSG:3857", http.StatusBadRequest, ""},
		{"not loaded", "/collections/ghost.geojson", http.StatusNotFound, ""},
		{"unknown", "/collections/nope.geojson", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(h, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			if tt.status != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/geo+json" {
				t.Errorf("Content-Type = %q", ct)
			}
			doc := rec.Body.Bytes()
			if got := gjson.GetBytes(doc, "properties.crs").String(); got != tt.wantCRS {
				t.Errorf("crs = %q, want %q", got, tt.wantCRS)
			}
			if n := gjson.GetBytes(doc, "features.#").Int(); n != 2 {
				t.Errorf("features = %d, want 2", n)
			}
		})
	}

	rec := get(h, "/collections/home.geojson?crs=nope")
	if !strings.Contains(rec.Body.String(), "Unknown CRS string: nope") {
		t.Errorf("body = %q", rec.Body)
	}
}

func TestGeoJSONOutputCRSOverride(t *testing.T) {
	srv, h := newTestServer(t)
	// stored as EPSG:4326, server started with an ENU override
	srv.Config.OutputCRS = geoson.ENU

	for _, target := range []string{"/collections/home.geojson", "/collections/home.geojson?crs=ENU"} {
		rec := get(h, target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", target, rec.Code)
		}
		if got := gjson.GetBytes(rec.Body.Bytes(), "properties.crs").String(); got != "ENU" {
			t.Errorf("%s: crs = %q, want ENU", target, got)
		}
	}

	rec := get(h, "/collections/home.geojson?crs=EPSG:4326")
	if got := gjson.GetBytes(rec.Body.Bytes(), "properties.crs").String(); got != "EPSG:4326" {
		t.Errorf("wgs crs = %q", got)
	}
}

func TestGeoJSONENUCoordinates(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(h, "/collections/home.geojson?crs=ENU")
	fc, err := geoson.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	p, ok := fc.Features[1].Geometry.(geo.Point)
	if !ok {
		t.Fatalf("feature 1 is %T", fc.Features[1].Geometry)
	}
	if d := p.X - 5; d > 1e-3 || d < -1e-3 {
		t.Errorf("point = %v, want x close to 5", p)
	}
}

func TestETag(t *testing.T) {
	_, h := newTestServer(t)

	for _, target := range []string{
		"/collections/home.geojson",
		"/collections/home.geojson?crs=ENU",
		"/collections/home/preview.webp",
		"/",
	} {
		t.Run(target, func(t *testing.T) {
			first := get(h, target)
			etag := first.Header().Get("ETag")
			if etag == "" {
				t.Fatal("no ETag")
			}
			if again := get(h, target, "If-None-Match", etag); again.Code != http.StatusNotModified {
				t.Errorf("status = %d, want 304", again.Code)
			}
		})
	}

	wgs := get(h, "/collections/home.geojson").Header().Get("ETag")
	enu := get(h, "/collections/home.geojson?crs=ENU").Header().Get("ETag")
	if wgs == enu {
		t.Error("ETag must differ between CRS variants")
	}
}

func TestPreviewAndTiles(t *testing.T) {
	srv, h := newTestServer(t)

	stored, err := os.ReadFile(filepath.Join(srv.Config.TilesDir("home"), "1", "1", "0.webp"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		target string
		status int
		body   []byte
	}{
		{"/collections/home/preview.webp", http.StatusOK, nil},
		{"/collections/farm/preview.webp", http.StatusOK, nil},
		{"/collections/ghost/preview.webp", http.StatusNotFound, nil},
		{"/collections/home/tiles/1/1/0.webp", http.StatusOK, stored},
		{"/collections/home/tiles/2/0/0.webp", http.StatusNotFound, nil},
		{"/collections/home/tiles/1/2/0.webp", http.StatusNotFound, nil},
		{"/collections/home/tiles/0/0/x.webp", http.StatusNotFound, nil},
		{"/collections/home/tiles/0/0/0.png", http.StatusNotFound, nil},
		{"/collections/home/other/0/0/0.webp", http.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(h, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && rec.Header().Get("Content-Type") != "image/webp" {
				t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
			}
			if tt.body != nil && !bytes.Equal(rec.Body.Bytes(), tt.body) {
				t.Error("body differs from the stored tile")
			}
		})
	}
}

func TestMissingTileIsTransparent(t *testing.T) {
	srv, h := newTestServer(t)

	if err := os.Remove(filepath.Join(srv.Config.TilesDir("home"), "1", "0", "1.webp")); err != nil {
		t.Fatal(err)
	}

	rec := get(h, "/collections/home/tiles/1/0/1.webp")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), srv.TransparentTile) {
		t.Error("expected the transparent tile")
	}
	img, err := xwebp.DecodeConfig(bytes.NewReader(srv.TransparentTile))
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 16 {
		t.Errorf("transparent tile width = %d, want 16", img.Width)
	}
}

func TestIndex(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()

	for _, want := range []string{"Home field", "/collections/home/preview.webp", "<code>farm</code>", "EPSG:4326"} {
		if !strings.Contains(body, want) {
			t.Errorf("index lacks %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "ghost") {
		t.Error("index lists a collection that is not loaded")
	}
	if strings.Contains(body, "\n  ") {
		t.Error("index is not minified")
	}

	if rec := get(h, "/favicon.ico"); rec.Code != http.StatusNotFound {
		t.Errorf("/favicon.ico status = %d, want 404", rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	_, h := newTestServer(t)

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	get(h, "/collections/nope.geojson?crs=ENU")

	out := buf.String()
	for _, want := range []string{`"message":"Request processed"`, `"status":404`, `"path":"/collections/nope.geojson"`, `"query":"crs=ENU"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log lacks %s: %s", want, out)
		}
	}
}
