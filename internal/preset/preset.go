// Package preset loads bundled community-defaults presets: named YAML
// documents that set a board's tunables and moderation reasons in one
// shot, applied onto the global defaults block (analogous to the
// teacher's profile.Load, YAML-loaded rule bundles applied onto a running
// policy). Out of scope for enforcement semantics; purely a CLI
// convenience.
package preset

import (
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/go5chan/boardkeeper/internal/modconfig"
	"github.com/go5chan/boardkeeper/internal/model"
)

//go:embed bundled/*.yaml
var bundled embed.FS

// Preset is one named bundle of default tunables and reasons.
type Preset struct {
	Name                string                   `yaml:"-"`
	PerPage             *int                     `yaml:"perPage,omitempty"`
	Pages               *int                     `yaml:"pages,omitempty"`
	BumpLimit           *int                     `yaml:"bumpLimit,omitempty"`
	ArchivePurgeSeconds *int                     `yaml:"archivePurgeSeconds,omitempty"`
	ModerationReasons   *model.ModerationReasons `yaml:"moderationReasons,omitempty"`
}

// Load reads the bundled preset named name (without extension).
func Load(name string) (Preset, error) {
	data, err := fs.ReadFile(bundled, "bundled/"+name+".yaml")
	if err != nil {
		return Preset{}, fmt.Errorf("preset: unknown preset %q: %w", name, err)
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("preset: parsing %q: %w", name, err)
	}
	p.Name = name
	return p, nil
}

// List returns the names of every bundled preset.
func List() ([]string, error) {
	entries, err := fs.ReadDir(bundled, "bundled")
	if err != nil {
		return nil, fmt.Errorf("preset: listing bundled presets: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		names = append(names, trimYAMLExt(name))
	}
	return names, nil
}

// AsDefaults converts a preset into the global config's Defaults shape,
// ready to be saved with modconfig.SaveGlobalConfig.
func (p Preset) AsDefaults() modconfig.Defaults {
	return modconfig.Defaults{
		PerPage:             p.PerPage,
		Pages:               p.Pages,
		BumpLimit:           p.BumpLimit,
		ArchivePurgeSeconds: p.ArchivePurgeSeconds,
		ModerationReasons:   p.ModerationReasons,
	}
}

func trimYAMLExt(name string) string {
	const ext = ".yaml"
	if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
		return name[:len(name)-len(ext)]
	}
	return name
}
