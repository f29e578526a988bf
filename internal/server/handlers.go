// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geoson/pkg/geoson"
)

const (
	etagCap        = 64
	geoJSONType    = "application/geo+json"
	geoJSONSuffix  = ".geojson"
	webpType       = "image/webp"
	webpSuffix     = ".webp"
	previewFile    = "preview.webp"
	tilesComponent = "tiles"
)

// Routes registers every handler on a new mux.
func (s *ServerContext) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/collections", s.HandleCollectionsList)
	mux.HandleFunc("/collections/", s.HandleCollection)
	mux.HandleFunc("/", s.HandleIndex)
	return mux
}

// HandleCollectionsList serves the JSON list of available collections.
func (s *ServerContext) HandleCollectionsList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(s.Config.Collections)
}

// HandleIndex serves the minified HTML index.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleCollection serves GeoJSON, previews and tiles of one collection:
//
//	/collections/{name}.geojson?crs=ENU
//	/collections/{name}/preview.webp
//	/collections/{name}/tiles/{z}/{x}/{y}.webp
func (s *ServerContext) HandleCollection(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 2 && strings.HasSuffix(parts[1], geoJSONSuffix):
		name, ok := s.resolve(strings.TrimSuffix(parts[1], geoJSONSuffix))
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.serveGeoJSON(w, r, name)

	case len(parts) == 3 && parts[2] == previewFile:
		name, ok := s.resolve(parts[1])
		if !ok || !s.serveFile(w, r, s.Config.PreviewFile(name), webpType) {
			http.NotFound(w, r)
		}

	case len(parts) == 6 && parts[2] == tilesComponent:
		name, ok := s.resolve(parts[1])
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.serveTile(w, r, name, parts[3], parts[4], parts[5])

	default:
		http.NotFound(w, r)
	}
}

func (s *ServerContext) resolve(requested string) (string, bool) {
	name, ok := s.NameResolver[requested]
	return name, ok
}

// serveGeoJSON sends the stored collection. The stored file is served as is
// when the CRS it declares is the requested one, otherwise it is re-encoded.
func (s *ServerContext) serveGeoJSON(w http.ResponseWriter, r *http.Request, name string) {
	crs := s.Config.OutputCRS
	if q := r.URL.Query().Get("crs"); q != "" {
		var err error
		if crs, err = geoson.ParseCRS(q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	path := s.Config.CollectionFile(name)
	stored, err := os.ReadFile(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	// the stored file may predate an output CRS override
	if have, err := geoson.DetectCRS(stored); err == nil && have == crs {
		if !s.serveFile(w, r, path, geoJSONType) {
			http.NotFound(w, r)
		}
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	etag := fileETag(info, crs.String())
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	codec := s.Config.Codec(s.Collections[name])
	fc, err := codec.Parse(stored)
	if err != nil {
		log.Error().Err(err).Str("collection", name).Msg("Failed to read stored collection")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data, err := codec.Marshal(fc, crs)
	if err != nil {
		log.Error().Err(err).Str("collection", name).Msg("Failed to encode collection")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", geoJSONType)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(data)
}

// serveTile sends a pyramid tile. Tiles missing inside the zoom range fall
// back to a transparent one.
func (s *ServerContext) serveTile(w http.ResponseWriter, r *http.Request, name, zs, xs, ys string) {
	// numeric components only, to prevent path probing
	z, errZ := strconv.Atoi(zs)
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(strings.TrimSuffix(ys, webpSuffix))
	if errZ != nil || errX != nil || errY != nil || !strings.HasSuffix(ys, webpSuffix) {
		http.NotFound(w, r)
		return
	}

	grid := 1 << min(max(z, 0), 30)
	if z < 0 || z > s.Collections[name].ZoomLimit || x < 0 || y < 0 || x >= grid || y >= grid {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.Config.TilesDir(name), strconv.Itoa(z), strconv.Itoa(x), strconv.Itoa(y)+webpSuffix)
	if s.serveFile(w, r, path, webpType) {
		return
	}

	w.Header().Set("Content-Type", webpType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(s.TransparentTile)
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	etag := fileETag(info, "")

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}

// fileETag derives a strong ETag from size and modification time, with an
// optional variant tag.
func fileETag(info fs.FileInfo, variant string) string {
	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	if variant != "" {
		buf = append(buf, '-')
		buf = append(buf, variant...)
	}
	buf = append(buf, '"')
	return string(buf)
}
