// Package framework holds the section descriptor tables that define each
// research methodology.
package framework

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/deep-research/internal/model"
)

// TopicPlaceholder is replaced by the run topic in example queries.
const TopicPlaceholder = "<TOPIC>"

// ErrUnknownFramework is returned for framework names outside the known set.
var ErrUnknownFramework = eris.New("framework: unknown framework")

// Table maps a framework name to its ordered section descriptors.
type Table map[string][]model.SectionDescriptor

// Names returns the accepted framework identifiers.
func Names() []string {
	return []string{model.FrameworkBigIdea, model.FrameworkSpecificIdea}
}

// Known reports whether name is an accepted framework identifier.
func Known(name string) bool {
	return name == model.FrameworkBigIdea || name == model.FrameworkSpecificIdea
}

// Default returns the built-in descriptor tables.
func Default() Table {
	return Table{
		model.FrameworkBigIdea:      bigIdeaSections(),
		model.FrameworkSpecificIdea: specificIdeaSections(),
	}
}

// Sections returns a copy of the ordered descriptors for name.
func (t Table) Sections(name string) ([]model.SectionDescriptor, error) {
	if !Known(name) {
		return nil, eris.Wrapf(ErrUnknownFramework, "%q", name)
	}
	secs, ok := t[name]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownFramework, "%q has no sections", name)
	}
	out := make([]model.SectionDescriptor, len(secs))
	for i, s := range secs {
		out[i] = clone(s)
	}
	return out, nil
}

// Sections returns the built-in descriptors for name.
func Sections(name string) ([]model.SectionDescriptor, error) {
	return Default().Sections(name)
}

// Expand returns a copy of desc with the topic substituted into every
// example query.
func Expand(desc model.SectionDescriptor, topic string) model.SectionDescriptor {
	out := clone(desc)
	for i, q := range out.ExampleQueries {
		out.ExampleQueries[i] = strings.ReplaceAll(q, TopicPlaceholder, topic)
	}
	return out
}

// LoadFile reads descriptor overrides from a YAML file shaped as
// {framework: [descriptor, ...]} and merges them over the built-in tables.
// A framework present in the file replaces its built-in table entirely.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "framework: read %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML descriptor overrides; see LoadFile.
func Parse(data []byte) (Table, error) {
	var overrides Table
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrap(err, "framework: parse yaml")
	}

	table := Default()
	for name, secs := range overrides {
		if !Known(name) {
			return nil, eris.Wrapf(ErrUnknownFramework, "%q in overrides", name)
		}
		if err := validate(name, secs); err != nil {
			return nil, err
		}
		table[name] = secs
	}
	return table, nil
}

func validate(name string, secs []model.SectionDescriptor) error {
	if len(secs) == 0 {
		return eris.Errorf("framework: %s: no sections", name)
	}
	seen := make(map[string]bool, len(secs))
	for i, s := range secs {
		if strings.TrimSpace(s.Section) == "" {
			return eris.Errorf("framework: %s: section %d has no name", name, i)
		}
		if seen[s.Section] {
			return eris.Errorf("framework: %s: duplicate section %q", name, s.Section)
		}
		seen[s.Section] = true
	}
	return nil
}

func clone(d model.SectionDescriptor) model.SectionDescriptor {
	d.Facets = append([]string(nil), d.Facets...)
	d.ExampleQueries = append([]string(nil), d.ExampleQueries...)
	return d
}
