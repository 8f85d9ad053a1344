package routefile

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samirrijal/stepwise/internal/core/domain"
)

// Manifest is the YAML description of one route. Geofences live in a
// separate GeoJSON file referenced relative to the manifest.
type Manifest struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Waypoints   []domain.Waypoint `yaml:"waypoints"`
	Geofences   string            `yaml:"geofences"`
}

// ObjectStore fetches objects from S3-compatible storage.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// Loader reads route manifests from local paths or s3://bucket/key URLs.
type Loader struct {
	store ObjectStore
}

// NewLoader creates a loader; store may be nil when only local files are
// used.
func NewLoader(store ObjectStore) *Loader {
	return &Loader{store: store}
}

// Load reads a manifest and its geofence file and returns a validated route.
func (l *Loader) Load(ctx context.Context, src string) (*domain.Route, error) {
	data, err := l.read(ctx, src)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: yaml: %w", src, err)
	}

	route := &domain.Route{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Waypoints:   m.Waypoints,
	}
	if route.Name == "" {
		route.Name = route.ID
	}

	if m.Geofences != "" {
		gsrc := sibling(src, m.Geofences)
		gdata, err := l.read(ctx, gsrc)
		if err != nil {
			return nil, err
		}
		route.Geofences, err = ParseGeofences(gdata)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", gsrc, err)
		}
	}

	if err := route.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return route, nil
}

func (l *Loader) read(ctx context.Context, src string) ([]byte, error) {
	if bucket, key, ok := parseS3(src); ok {
		if l.store == nil {
			return nil, fmt.Errorf("%s: no object store configured", src)
		}
		return l.store.Get(ctx, bucket, key)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return data, nil
}

// sibling resolves ref relative to the directory holding src.
func sibling(src, ref string) string {
	if strings.HasPrefix(ref, "s3://") || filepath.IsAbs(ref) {
		return ref
	}
	if bucket, key, ok := parseS3(src); ok {
		return "s3://" + bucket + "/" + path.Join(path.Dir(key), ref)
	}
	return filepath.Join(filepath.Dir(src), ref)
}

func parseS3(src string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(src, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
