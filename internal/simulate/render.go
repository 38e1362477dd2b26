package simulate

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/okian/caloric/internal/domain/types"
)

// Output formats.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Render writes v in the given format. v must be a *LocalReport or *RemoteReport.
func Render(w io.Writer, format string, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		switch r := v.(type) {
		case *LocalReport:
			_, err := io.WriteString(w, localTable(r)+"\n")
			return err
		case *RemoteReport:
			_, err := io.WriteString(w, remoteTable(r)+"\n")
			return err
		}
		return fmt.Errorf("%w: cannot render %T as a table", ErrUnknownFormat, v)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func localTable(r *LocalReport) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := table.Row{"Step", "Added"}
	for i := 1; i <= r.Count; i++ {
		header = append(header, strconv.Itoa(i))
	}
	header = append(header, "Outcome")
	t.AppendHeader(header)

	t.AppendRow(weightRow(0, "-", r.Initial, "-"))
	for _, s := range r.Steps {
		outcome := s.Outcome
		if s.Reset {
			outcome += " (reset)"
		}
		t.AppendRow(weightRow(s.Step, strconv.Itoa(s.Selected), s.Weights, outcome))
	}

	cfgs := make([]table.ColumnConfig, 0, r.Count+2)
	for i := 1; i <= r.Count+2; i++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	t.SetColumnConfigs(cfgs)
	return t.Render()
}

func weightRow(step int, added string, weights []types.IngredientWeight, outcome string) table.Row {
	row := table.Row{step, added}
	for _, w := range weights {
		row = append(row, fmt.Sprintf("%.4f", w.Weight))
	}
	return append(row, outcome)
}

func remoteTable(r *RemoteReport) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Outcome", "Count"})

	names := make([]string, 0, len(r.Outcomes))
	for name := range r.Outcomes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.AppendRow(table.Row{name, r.Outcomes[name]})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"replayed", r.Replayed})
	t.AppendRow(table.Row{"failed", r.Failures})
	t.AppendRow(table.Row{"additions", r.Additions})
	t.AppendRow(table.Row{"sessions", r.Sessions})
	return t.Render()
}
