package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Alia5/xrinput/mapping"
)

// MappingsCommand groups mapping table subcommands.
type MappingsCommand struct {
	List   MappingsList   `cmd:"" help:"List the known controller ids"`
	Export MappingsExport `cmd:"" help:"Write the mapping table in yaml, toml or json"`
}

func loadTable(extra string) (*mapping.Table, error) {
	t := mapping.Builtin()
	if extra == "" {
		return t, nil
	}
	o, err := mapping.Load(extra)
	if err != nil {
		return nil, err
	}
	return t.Merge(o), nil
}

type MappingsList struct {
	Mappings string `help:"Mapping table file merged over the builtin table" type:"path"`
	JSON     bool   `help:"Print JSON lines even on a terminal"`
}

func (m *MappingsList) Run(logger *slog.Logger) error {
	t, err := loadTable(m.Mappings)
	if err != nil {
		return err
	}
	asJSON := m.JSON || !term.IsTerminal(int(os.Stdout.Fd()))
	return listMappings(os.Stdout, t, asJSON)
}

func listMappings(w io.Writer, t *mapping.Table, asJSON bool) error {
	for _, e := range t.Entries() {
		if asJSON {
			b, err := json.Marshal(e)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\n", b)
			continue
		}
		primary := e.Primary
		if primary == "" {
			primary = "-"
		}
		fmt.Fprintf(w, "%-58s %-10s buttons=%s primary=%s\n", e.ID, e.Style, strings.Join(e.Buttons, ","), primary)
	}
	return nil
}

type MappingsExport struct {
	Format   string `help:"Output format" enum:"yaml,toml,json" default:"yaml"`
	Output   string `help:"Destination file, stdout when empty" type:"path"`
	Mappings string `help:"Mapping table file merged over the builtin table" type:"path"`
	Force    bool   `help:"Overwrite if the file already exists"`
}

func (m *MappingsExport) Run(logger *slog.Logger) error {
	t, err := loadTable(m.Mappings)
	if err != nil {
		return err
	}
	format, err := mapping.ParseFormat(m.Format)
	if err != nil {
		return err
	}
	data, err := t.Marshal(format)
	if err != nil {
		return fmt.Errorf("encode mappings: %w", err)
	}

	if m.Output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := writeNew(m.Output, data, m.Force); err != nil {
		return err
	}
	logger.Info("mappings exported", "file", m.Output, "entries", t.Len())
	return nil
}
