package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"

	"hyde/internal/reconciler"
	"hyde/internal/settings"
	"hyde/internal/template"
	hydestrings "hyde/pkg/strings"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable renders boxed tables
	OutputFormatTable OutputFormat = "table"
	// OutputFormatPlain renders kubectl-style columns without borders
	OutputFormatPlain OutputFormat = "plain"
	// OutputFormatJSON renders indented JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML renders YAML
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatPlain, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (valid: table, plain, json, yaml)", format)
	}
}

// Printer renders command results.
type Printer struct {
	out       io.Writer
	format    OutputFormat
	noHeaders bool
}

// NewPrinter creates a Printer. An unknown format falls back to table.
func NewPrinter(out io.Writer, format OutputFormat, noHeaders bool) *Printer {
	if ValidateOutputFormat(string(format)) != nil {
		format = OutputFormatTable
	}
	return &Printer{out: out, format: format, noHeaders: noHeaders}
}

// Structured reports whether the printer emits JSON or YAML.
func (p *Printer) Structured() bool {
	return p.format == OutputFormatJSON || p.format == OutputFormatYAML
}

// Data prints v as JSON or YAML. It is a no-op for table formats.
func (p *Printer) Data(v any) error {
	switch p.format {
	case OutputFormatJSON:
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = p.out.Write(pretty.Pretty(raw))
		return err
	case OutputFormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return nil
}

// Message prints a line of human-oriented text. Structured output
// suppresses it.
func (p *Printer) Message(format string, args ...any) {
	if p.Structured() {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) newTable(headers ...string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	if p.format == OutputFormatPlain {
		t.SetStyle(plainStyle())
	} else {
		t.SetStyle(table.StyleRounded)
	}
	if !p.noHeaders {
		row := make(table.Row, len(headers))
		for i, h := range headers {
			row[i] = h
		}
		t.AppendHeader(row)
	}
	return t
}

// Table prints rows under headers in the printer's table style.
func (p *Printer) Table(headers []string, rows []table.Row) {
	t := p.newTable(headers...)
	t.AppendRows(rows)
	t.Render()
}

func plainStyle() table.Style {
	s := table.StyleDefault
	s.Name = "Plain"
	s.Box = table.BoxStyle{PaddingRight: "   "}
	s.Options = table.Options{}
	s.Format.Header = text.FormatUpper
	return s
}

// Values prints the given domains' values. Keys appear in declaration
// order.
func (p *Printer) Values(domains []settings.Domain, values map[string]map[string]any) error {
	if p.Structured() {
		out := make(map[string]map[string]any, len(domains))
		for _, d := range domains {
			out[d.Name] = values[d.Name]
		}
		return p.Data(out)
	}

	t := p.newTable("DOMAIN", "KEY", "VALUE", "DEFAULT")
	for _, d := range domains {
		for _, k := range d.Keys {
			v, ok := values[d.Name][k.Name]
			if !ok {
				continue
			}
			cell := template.FormatValue(v)
			if v != k.Default && p.format == OutputFormatTable {
				cell = text.FgHiYellow.Sprint(cell)
			}
			t.AppendRow(table.Row{d.Name, k.Name, cell, template.FormatValue(k.Default)})
		}
	}
	t.Render()
	return nil
}

// DomainView is the structured form of a domain declaration.
type DomainView struct {
	Name   string    `json:"name" yaml:"name"`
	File   string    `json:"file" yaml:"file"`
	Format string    `json:"format" yaml:"format"`
	Keys   []KeyView `json:"keys" yaml:"keys"`
}

// KeyView is the structured form of a key declaration.
type KeyView struct {
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"`
	Default     any      `json:"default" yaml:"default"`
	Constraint  string   `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Domains prints domain declarations. paths maps domain names to their
// resolved files.
func (p *Printer) Domains(domains []settings.Domain, paths map[string]string) error {
	views := make([]DomainView, len(domains))
	for i, d := range domains {
		file := d.File
		if path, ok := paths[d.Name]; ok {
			file = path
		}
		view := DomainView{Name: d.Name, File: file, Format: d.Format}
		for _, k := range d.Keys {
			view.Keys = append(view.Keys, KeyView{
				Name:        k.Name,
				Type:        string(k.Type),
				Default:     k.Default,
				Constraint:  constraint(k),
				Enum:        k.Enum,
				Description: k.Description,
			})
		}
		views[i] = view
	}

	if p.Structured() {
		return p.Data(views)
	}

	t := p.newTable("DOMAIN", "FILE", "FORMAT", "KEY", "TYPE", "DEFAULT", "CONSTRAINT")
	for _, v := range views {
		for i, k := range v.Keys {
			domain, file, format := v.Name, v.File, v.Format
			if i > 0 {
				domain, file, format = "", "", ""
			}
			t.AppendRow(table.Row{domain, file, format, k.Name, k.Type, template.FormatValue(k.Default), k.Constraint})
		}
	}
	t.Render()
	return nil
}

func constraint(k settings.Key) string {
	var parts []string
	if len(k.Enum) > 0 {
		parts = append(parts, strings.Join(k.Enum, "|"))
	}
	switch {
	case k.Min != nil && k.Max != nil:
		parts = append(parts, fmt.Sprintf("%s..%s", template.FormatValue(*k.Min), template.FormatValue(*k.Max)))
	case k.Min != nil:
		parts = append(parts, ">= "+template.FormatValue(*k.Min))
	case k.Max != nil:
		parts = append(parts, "<= "+template.FormatValue(*k.Max))
	}
	if k.Pattern != "" {
		parts = append(parts, "/"+k.Pattern+"/")
	}
	return strings.Join(parts, " ")
}

// ChangeSet prints the entries of a change set.
func (p *Printer) ChangeSet(cs *reconciler.ChangeSet) error {
	if p.Structured() {
		return p.Data(map[string]any{
			"id":      cs.ID,
			"source":  cs.Source,
			"entries": cs.Entries(),
		})
	}

	t := p.newTable("DOMAIN", "KEY", "OLD", "NEW")
	for _, e := range cs.Entries() {
		t.AppendRow(table.Row{e.Domain, e.Key, template.FormatValue(e.Old), template.FormatValue(e.New)})
	}
	t.Render()
	return nil
}

// Drift prints a drift report.
func (p *Printer) Drift(report *reconciler.DriftReport) error {
	if p.Structured() {
		return p.Data(report)
	}
	if !report.HasDrift() {
		p.Message("No external changes.")
		return nil
	}

	t := p.newTable("DOMAIN", "CHANGE", "KEY", "LOCAL", "EXTERNAL")
	for _, d := range report.Drifts {
		kind := string(d.Kind)
		if p.format == OutputFormatTable {
			kind = text.FgYellow.Sprint(kind)
		}
		if len(d.Keys) == 0 {
			t.AppendRow(table.Row{d.Domain, kind, "-", "", hydestrings.Truncate(d.Err, hydestrings.CellMaxLen)})
			continue
		}
		for _, k := range d.Keys {
			t.AppendRow(table.Row{d.Domain, kind, k.Key, template.FormatValue(k.Local), template.FormatValue(k.External)})
		}
	}
	t.Render()
	return nil
}

// Flags prints load flags per domain.
func (p *Printer) Flags(flags map[string][]reconciler.Flag) error {
	if p.Structured() {
		return p.Data(flags)
	}
	if len(flags) == 0 {
		p.Message("All settings files are clean.")
		return nil
	}

	domains := make([]string, 0, len(flags))
	for d := range flags {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	t := p.newTable("DOMAIN", "KEY", "PROBLEM", "RAW", "REASON")
	for _, d := range domains {
		for _, f := range flags[d] {
			raw := ""
			if f.Raw != nil {
				raw = template.FormatValue(f.Raw)
			}
			t.AppendRow(table.Row{d, f.Key, string(f.Kind), hydestrings.Truncate(raw, hydestrings.CellMaxLen), hydestrings.Truncate(f.Reason, hydestrings.CellMaxLen)})
		}
	}
	t.Render()
	return nil
}

// Metrics prints a metrics summary.
func (p *Printer) Metrics(summary reconciler.MetricsSummary) error {
	if p.Structured() {
		return p.Data(summary)
	}

	t := p.newTable("DOMAIN", "APPLIED", "FAILED", "ROLLBACKS", "CONFLICTS", "DRIFTS")
	for _, d := range summary.PerDomain {
		t.AppendRow(table.Row{d.Domain, d.ApplySuccesses, d.ApplyFailures, d.Rollbacks, d.Conflicts, d.Drifts})
	}
	t.AppendFooter(table.Row{"total", summary.TotalApplySuccesses, summary.TotalApplyFailures,
		summary.TotalRollbacks, summary.TotalConflicts, summary.TotalDriftDetections})
	t.Render()
	return nil
}
