package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/luamagic/luamagic/internal/cli/ui"
	"github.com/luamagic/luamagic/internal/compiler/scanner"
)

// packageReport is the serialized view of a scanned package.
type packageReport struct {
	Package  string          `json:"package" yaml:"package"`
	Dir      string          `json:"dir" yaml:"dir"`
	Types    []typeReport    `json:"types" yaml:"types"`
	Compiles []compileReport `json:"compiles" yaml:"compiles"`
}

type typeReport struct {
	Name     string          `json:"name" yaml:"name"`
	Kind     string          `json:"kind" yaml:"kind"`
	Position string          `json:"position" yaml:"position"`
	Doc      string          `json:"doc,omitempty" yaml:"doc,omitempty"`
	Fields   []fieldReport   `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods  []methodReport  `json:"methods,omitempty" yaml:"methods,omitempty"`
	Variants []variantReport `json:"variants,omitempty" yaml:"variants,omitempty"`
}

type fieldReport struct {
	Name     string `json:"name" yaml:"name"`
	GoName   string `json:"go_name" yaml:"go_name"`
	Type     string `json:"type" yaml:"type"`
	ReadOnly bool   `json:"read_only,omitempty" yaml:"read_only,omitempty"`
}

type methodReport struct {
	Name      string `json:"name" yaml:"name"`
	GoName    string `json:"go_name" yaml:"go_name"`
	Receiver  string `json:"receiver" yaml:"receiver"`
	Signature string `json:"signature" yaml:"signature"`
}

type variantReport struct {
	Name   string `json:"name" yaml:"name"`
	GoName string `json:"go_name" yaml:"go_name"`
}

type compileReport struct {
	Type   string `json:"type" yaml:"type"`
	Groups string `json:"groups" yaml:"groups"`
}

func newPackageReport(pkg *scanner.Package) packageReport {
	r := packageReport{Package: pkg.Name, Dir: pkg.Dir}
	for _, t := range pkg.Types {
		tr := typeReport{Name: t.Name, Kind: t.Kind.String(), Position: t.Pos.String(), Doc: t.Doc}
		if t.Implementation && t.Kind != scanner.KindOpaque {
			tr.Kind += "+implementation"
		}
		for _, f := range t.Fields {
			tr.Fields = append(tr.Fields, fieldReport{Name: f.LuaName, GoName: f.GoName, Type: f.Type, ReadOnly: f.ReadOnly})
		}
		for _, m := range t.Methods {
			tr.Methods = append(tr.Methods, methodReport{
				Name:      m.LuaName,
				GoName:    m.GoName,
				Receiver:  m.Receiver.String(),
				Signature: signature(m),
			})
		}
		for _, v := range t.Variants {
			tr.Variants = append(tr.Variants, variantReport{Name: v.LuaName, GoName: v.GoName})
		}
		r.Types = append(r.Types, tr)
	}
	for _, c := range pkg.Compiles {
		r.Compiles = append(r.Compiles, compileReport{Type: c.Type, Groups: c.Options.String()})
	}
	return r
}

func signature(m scanner.Callable) string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = strings.TrimSpace(p.Name + " " + p.Type)
	}
	sig := "(" + strings.Join(params, ", ") + ")"
	switch len(m.Results) {
	case 0:
	case 1:
		sig += " " + m.Results[0]
	default:
		sig += " (" + strings.Join(m.Results, ", ") + ")"
	}
	return sig
}

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	var (
		format   string
		typeName string
	)

	cmd := &cobra.Command{
		Use:   "inspect [dir]",
		Short: "Show the bindings a package declares",
		Long: `Scan a package directory and print the types, fields, methods, variants
and compile requests its luamagic directives declare.

Examples:
  luamagic inspect ./game
  luamagic inspect ./game --type Player
  luamagic inspect ./game --format yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			pkg, err := scanner.Scan(cmd.Context(), dir, scanner.Options{
				Exclude: []string{s.cfg.Generate.Output},
				Cache:   s.scanCache(),
				Logger:  s.logger,
			})
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.GenerateError(dir, err, noColor))
				return reportedError{err}
			}

			report := newPackageReport(pkg)
			if typeName != "" {
				var names []string
				var only []typeReport
				for _, t := range report.Types {
					names = append(names, t.Name)
					if t.Name == typeName {
						only = append(only, t)
					}
				}
				if len(only) == 0 {
					err := fmt.Errorf("no bound type %s in %s", typeName, dir)
					fmt.Fprint(cmd.ErrOrStderr(), ui.TypeNotFoundError(typeName, ui.FindSimilar(typeName, names), noColor))
					return reportedError{err}
				}
				report.Types = only
			}

			return writeReport(cmd.OutOrStdout(), report, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Only show this type")

	return cmd
}

func writeReport(w io.Writer, report packageReport, format string) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	case "table":
		writeReportTable(w, report)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", format)
	}
}

func writeReportTable(w io.Writer, report packageReport) {
	for _, t := range report.Types {
		ui.Header(w, fmt.Sprintf("%s (%s) %s", t.Name, t.Kind, t.Position), noColor)
		table := ui.NewTable(w, noColor, "GROUP", "LUA NAME", "GO NAME", "DETAIL")
		for _, f := range t.Fields {
			detail := f.Type
			if f.ReadOnly {
				detail += ", read-only"
			}
			table.AddRow("field", f.Name, f.GoName, detail)
		}
		for _, m := range t.Methods {
			group := "method"
			if m.Receiver == "none" {
				group = "static"
			}
			table.AddRow(group, m.Name, m.GoName, m.Receiver+" "+m.Signature)
		}
		for _, v := range t.Variants {
			table.AddRow("variant", v.Name, v.GoName, "")
		}
		if table.Len() > 0 {
			table.Render()
		}
		fmt.Fprintln(w)
	}

	if len(report.Compiles) > 0 {
		ui.Header(w, "Compile requests", noColor)
		table := ui.NewTable(w, noColor, "TYPE", "GROUPS")
		for _, c := range report.Compiles {
			table.AddRow(c.Type, c.Groups)
		}
		table.Render()
	}
}
