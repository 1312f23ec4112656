package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// emit writes v as indented JSON in --json mode and through text otherwise.
// text writes tab-separated columns that are aligned before output.
func (a *app) emit(v any, text func(w io.Writer)) error {
	if a.flags.jsonMode {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}
