package source

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Route names the per-store location of one logical container.
type Route struct {
	SupabaseTable  string `yaml:"supabase_table"`
	NotionDatabase string `yaml:"notion_database"`
}

// Mapping translates logical container names to store-specific locations.
// Containers absent from the mapping route to a table and database of the
// same name.
type Mapping struct {
	Containers map[string]Route `yaml:"containers"`
}

// LoadMapping reads a container mapping from a YAML file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read mapping %s", path)
	}

	// The YAML has a top-level "sources" key
	var wrapper struct {
		Sources Mapping `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "source: parse mapping %s", path)
	}

	m := &wrapper.Sources
	if m.Containers == nil {
		m.Containers = map[string]Route{}
	}
	return m, nil
}

// Route returns the store locations for a container, falling back to the
// container name itself for anything unmapped.
func (m *Mapping) Route(container string) Route {
	if m != nil {
		if r, ok := m.Containers[container]; ok {
			if r.SupabaseTable == "" {
				r.SupabaseTable = container
			}
			if r.NotionDatabase == "" {
				r.NotionDatabase = container
			}
			return r
		}
	}
	return Route{SupabaseTable: container, NotionDatabase: container}
}
