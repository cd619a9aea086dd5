// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes up to limit runs to w as a YAML sequence.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	runs, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes up to limit runs to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, limit int) error {
	runs, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// WriteTable writes up to limit runs to w as aligned columns.
func (s *Store) WriteTable(ctx context.Context, w io.Writer, limit int) error {
	runs, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tTOOL\tSTATUS\tINPUT\tOUTPUT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Tool, r.Status, r.Input, r.Output)
	}
	return tw.Flush()
}
