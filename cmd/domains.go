package cmd

import (
	"github.com/spf13/cobra"

	"hyde/internal/cli"
)

// newDomainsCmd lists the setting domains, their files and key declarations.
func newDomainsCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "List setting domains and their keys",
		Long: `List every setting domain with its backing file, file format and the
declared keys with their types, defaults and constraints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd, flags, false)
			if err != nil {
				return err
			}

			domains := w.rec.Domains()
			paths := make(map[string]string, len(domains))
			for _, d := range domains {
				if path, err := w.rec.Path(d.Name); err == nil {
					paths[d.Name] = path
				}
			}
			return w.printer.Domains(domains, paths)
		},
	}
}
