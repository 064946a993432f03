package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewCountriesCmd prints the catalog the next game would use.
func NewCountriesCmd(configPath *string) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "Load and list the country catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			if refresh {
				if err := d.catalog.Invalidate(cmd.Context()); err != nil {
					return err
				}
			}
			catalog, err := d.catalog.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case catalog.Offline:
				fmt.Fprintln(out, catalog.Advisory)
			case catalog.FromCache:
				fmt.Fprintln(out, "(cached)")
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "code\tcountry\tcapital\tregion")
			for _, c := range catalog.Countries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Code, c.Name, c.Capital, c.Region)
			}
			fmt.Fprintf(w, "\n%d countries\n", len(catalog.Countries))
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached catalog")
	return cmd
}
