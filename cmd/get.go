package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hyde/internal/cli"
	"hyde/internal/settings"
	"hyde/internal/template"
)

// newGetCmd prints current setting values.
func newGetCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get [domain[.key]]...",
		Short: "Show current setting values",
		Long: `Show the current values of all settings, of whole domains or of single
keys. A single domain.key argument prints the bare value.`,
		Example: `  hyde-settings get
  hyde-settings get appearance window.layout
  hyde-settings get appearance.borderRadius`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd, flags, false)
			if err != nil {
				return err
			}

			if len(args) == 1 && strings.Contains(args[0], ".") && !w.printer.Structured() {
				domain, key, _ := strings.Cut(args[0], ".")
				v, err := w.rec.Get(domain, key)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), template.FormatValue(v))
				return nil
			}

			domains, values, err := selectValues(w, args)
			if err != nil {
				return err
			}
			return w.printer.Values(domains, values)
		},
	}
}

// selectValues resolves get arguments to the domains and values to print.
// No arguments select everything.
func selectValues(w *workspace, args []string) ([]settings.Domain, map[string]map[string]any, error) {
	all := w.rec.All()
	if len(args) == 0 {
		return w.rec.Domains(), all, nil
	}

	// keys[domain] == nil selects the whole domain.
	keys := make(map[string]map[string]bool)
	var order []string
	for _, arg := range args {
		domain, key, hasKey := strings.Cut(arg, ".")
		if hasKey {
			if _, err := w.rec.Get(domain, key); err != nil {
				return nil, nil, err
			}
		} else if _, ok := w.rec.Registry().Domain(domain); !ok {
			return nil, nil, fmt.Errorf("%w: %s", settings.ErrUnknownDomain, domain)
		}

		selected, seen := keys[domain]
		if !seen {
			order = append(order, domain)
		}
		switch {
		case !hasKey:
			keys[domain] = nil
		case seen && selected == nil:
		default:
			if selected == nil {
				selected = make(map[string]bool)
			}
			selected[key] = true
			keys[domain] = selected
		}
	}

	var domains []settings.Domain
	values := make(map[string]map[string]any, len(order))
	for _, name := range order {
		d, _ := w.rec.Registry().Domain(name)
		domains = append(domains, d)
		if keys[name] == nil {
			values[name] = all[name]
			continue
		}
		values[name] = make(map[string]any)
		for k := range keys[name] {
			values[name][k] = all[name][k]
		}
	}
	return domains, values, nil
}
