package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"greenguile/internal/models"

	yaml "go.yaml.in/yaml/v3"
)

// BuiltinSource is the bird-call set shipped with the device.
type BuiltinSource struct{}

func (BuiltinSource) String() string { return "builtin" }

func (BuiltinSource) Patterns(context.Context) (map[models.Season][]string, error) {
	return map[models.Season][]string{
		models.SeasonSpring: {"sparrow_alarm", "hawk_call", "owl_hoot"},
		models.SeasonSummer: {"robin_song", "eagle_scream", "crow_caw"},
		models.SeasonAutumn: {"woodpecker_drill", "falcon_cry", "raven_call"},
		models.SeasonWinter: {"cardinal_whistle", "hawk_screech", "owl_call"},
	}, nil
}

// YAMLSource reads a file of the form
//
//	spring: [sparrow_alarm, hawk_call]
//	fall: [falcon_cry]
type YAMLSource struct {
	Path string
}

func (s YAMLSource) String() string { return "yaml:" + s.Path }

func (s YAMLSource) Patterns(ctx context.Context) (map[models.Season][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	out := make(map[models.Season][]string, len(raw))
	for tag, ids := range raw {
		season, err := models.ParseSeason(tag)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Path, err)
		}
		out[season] = append(out[season], cleanIDs(ids)...)
	}
	return out, nil
}

// DirSource scans a dataset laid out as <dir>/<season>/<pattern>.<ext>.
// The pattern ID is the file name without its extension.
type DirSource struct {
	Dir string
}

func (s DirSource) String() string { return "dir:" + s.Dir }

func (s DirSource) Patterns(ctx context.Context) (map[models.Season][]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	out := map[models.Season][]string{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() {
			continue
		}
		season, err := models.ParseSeason(e.Name())
		if err != nil {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var ids []string
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			ids = append(ids, strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())))
		}
		sort.Strings(ids)
		out[season] = append(out[season], ids...)
	}
	return out, nil
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// SourceFor builds the source named by kind ("builtin", "yaml" or "dir").
func SourceFor(kind, path string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "builtin":
		return BuiltinSource{}, nil
	case "yaml":
		return YAMLSource{Path: path}, nil
	case "dir":
		return DirSource{Dir: path}, nil
	default:
		return nil, fmt.Errorf("unknown pattern source %q", kind)
	}
}
