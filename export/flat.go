package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/byte4ever/service_catalog/catalog"
)

// Text writes the catalog as an indented hierarchy:
// one line per project, em-dash indented groupings and
// services beneath it.
func Text(w io.Writer, cat *catalog.Catalog) error {
	const errCtx = "exporting text"

	for _, p := range cat.Projects {
		if _, err := fmt.Fprintf(
			w, "%s\n", p.Path,
		); err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		for _, g := range p.Groupings {
			if _, err := fmt.Fprintf(
				w, "——— %s\n", g.Name,
			); err != nil {
				return fmt.Errorf(
					"%s: %w", errCtx, err,
				)
			}

			for _, s := range g.Services {
				if _, err := fmt.Fprintf(
					w, "—————— %s: %s\n",
					s.Name, s.Tag,
				); err != nil {
					return fmt.Errorf(
						"%s: %w", errCtx, err,
					)
				}
			}

			if _, err := fmt.Fprintln(w); err != nil {
				return fmt.Errorf(
					"%s: %w", errCtx, err,
				)
			}
		}
	}

	return nil
}

// CSV writes the catalog flattened into
// project,grouping,service,tag rows with a header.
// encoding/csv handles quoting of names containing
// commas.
func CSV(w io.Writer, cat *catalog.Catalog) error {
	const errCtx = "exporting csv"

	cw := csv.NewWriter(w)

	header := []string{
		"Project", "Grouping", "Service", "Tag",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, p := range cat.Projects {
		for _, g := range p.Groupings {
			for _, s := range g.Services {
				row := []string{
					p.Path, g.Name, s.Name, s.Tag,
				}
				if err := cw.Write(row); err != nil {
					return fmt.Errorf(
						"%s: %w", errCtx, err,
					)
				}
			}
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
