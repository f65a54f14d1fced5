// Package mapping holds the static table that turns a controller id string
// into semantic axis groups, button names and a primary button.
//
// Tables are immutable once built. A user supplied table is layered over the
// builtin one with Merge.
package mapping

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// AxisGroup names an ordered list of axis indexes, e.g. a 2D pad as [0, 1].
type AxisGroup struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	Indexes []int  `json:"indexes" yaml:"indexes,flow" toml:"indexes"`
}

// Entry describes one known device.
type Entry struct {
	ID      string      `json:"id" yaml:"id" toml:"id"`
	Style   string      `json:"style,omitempty" yaml:"style,omitempty" toml:"style,omitempty"`
	Axes    []AxisGroup `json:"axes,omitempty" yaml:"axes,omitempty" toml:"axes,omitempty"`
	Buttons []string    `json:"buttons,omitempty" yaml:"buttons,omitempty,flow" toml:"buttons,omitempty"`
	Primary string      `json:"primary,omitempty" yaml:"primary,omitempty" toml:"primary,omitempty"`
}

// PrimaryIndex returns the button index named by Primary.
func (e Entry) PrimaryIndex() (int, bool) {
	if e.Primary == "" {
		return 0, false
	}
	i := slices.Index(e.Buttons, e.Primary)
	return i, i >= 0
}

// Validate reports structural problems that would make an entry unusable.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("empty id")
	}
	seen := map[string]bool{}
	for _, g := range e.Axes {
		if g.Name == "" {
			return fmt.Errorf("%s: axis group without name", e.ID)
		}
		if seen[g.Name] {
			return fmt.Errorf("%s: duplicate axis group %q", e.ID, g.Name)
		}
		seen[g.Name] = true
		if len(g.Indexes) == 0 {
			return fmt.Errorf("%s: axis group %q has no indexes", e.ID, g.Name)
		}
		for _, idx := range g.Indexes {
			if idx < 0 {
				return fmt.Errorf("%s: axis group %q has negative index %d", e.ID, g.Name, idx)
			}
		}
	}
	if e.Primary != "" {
		if _, ok := e.PrimaryIndex(); !ok {
			return fmt.Errorf("%s: primary %q is not a button", e.ID, e.Primary)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	out := e
	out.Buttons = slices.Clone(e.Buttons)
	out.Axes = make([]AxisGroup, len(e.Axes))
	for i, g := range e.Axes {
		out.Axes[i] = AxisGroup{Name: g.Name, Indexes: slices.Clone(g.Indexes)}
	}
	return out
}

// Table maps device ids to entries.
type Table struct {
	entries map[string]Entry
	order   []string
}

type document struct {
	Controllers []Entry `json:"controllers" yaml:"controllers" toml:"controllers"`
}

// New builds a table from entries. Later entries with the same id win.
func New(entries ...Entry) (*Table, error) {
	t := &Table{entries: map[string]Entry{}}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, ok := t.entries[e.ID]; !ok {
			t.order = append(t.order, e.ID)
		}
		t.entries[e.ID] = e.Clone()
	}
	return t, nil
}

// Lookup returns a copy of the entry for id.
func (t *Table) Lookup(id string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[id]
	if !ok {
		return Entry{}, false
	}
	return e.Clone(), true
}

// IDs returns the known ids in table order.
func (t *Table) IDs() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.order)
}

// Entries returns copies of all entries in table order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.entries[id].Clone())
	}
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Merge returns a new table with the entries of o layered over t.
func (t *Table) Merge(o *Table) *Table {
	out := &Table{entries: map[string]Entry{}}
	for _, src := range []*Table{t, o} {
		for _, e := range src.Entries() {
			if _, ok := out.entries[e.ID]; !ok {
				out.order = append(out.order, e.ID)
			}
			out.entries[e.ID] = e
		}
	}
	return out
}

// Format is a serialization format for table files.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported mapping format %q", s)
	}
}

// Parse decodes a table document.
func Parse(data []byte, format Format) (*Table, error) {
	var doc document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported mapping format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return New(doc.Controllers...)
}

// Load reads a table file, picking the decoder from its extension.
func Load(path string) (*Table, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping table: %w", err)
	}
	t, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Marshal encodes the table in the given format.
func (t *Table) Marshal(format Format) ([]byte, error) {
	doc := document{Controllers: t.Entries()}
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatTOML:
		return toml.Marshal(doc)
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported mapping format %q", format)
	}
}

//go:embed builtin.yaml
var builtinYAML []byte

var builtin = sync.OnceValue(func() *Table {
	t, err := Parse(builtinYAML, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("builtin mapping table: %v", err))
	}
	return t
})

// Builtin returns the table of controllers known out of the box.
func Builtin() *Table {
	return builtin()
}
