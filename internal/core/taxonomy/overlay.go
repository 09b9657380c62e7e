package taxonomy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Overlay extends one taxonomy entry's provider keyword set. Overlays are
// loaded at startup from *.yaml files; there is no hot reload.
//
// On-disk shape:
//
//	taxonomy: Sports
//	keywords:
//	  - pickleball
//	  - crossfit
type Overlay struct {
	Taxonomy string   `yaml:"taxonomy"`
	Keywords []string `yaml:"keywords"`
}

// loadOverlays reads all overlay files in dir. A missing directory is valid
// (zero overlays configured); a malformed file is a startup error.
func loadOverlays(dir string) ([]Overlay, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("taxonomy overlay dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("taxonomy overlay path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy overlay dir: %w", err)
	}

	known := make(map[string]bool)
	for _, set := range defaultKeywordSets() {
		known[strings.ToLower(set.activityType.Name)] = true
	}

	var overlays []Overlay
	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading overlay file %s: %w", path, err)
		}

		var o Overlay
		if err := yaml.Unmarshal(data, &o); err != nil {
			return nil, fmt.Errorf("parsing overlay file %s: %w", path, err)
		}
		if o.Taxonomy == "" {
			continue // skip empty / comment-only files
		}

		if !known[strings.ToLower(o.Taxonomy)] {
			return nil, fmt.Errorf("overlay %s: unknown taxonomy %q (overlays only extend provider-mapped sets)", path, o.Taxonomy)
		}
		if len(o.Keywords) == 0 {
			return nil, fmt.Errorf("overlay %s: keywords must not be empty", path)
		}

		for i, kw := range o.Keywords {
			o.Keywords[i] = strings.ToLower(strings.TrimSpace(kw))
		}
		overlays = append(overlays, o)
	}

	return overlays, nil
}
