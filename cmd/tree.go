package cmd

import (
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/nestrack/nestrack"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type treeRow struct {
	Route   nestrack.Route
	Depth   int
	Kind    string
	Name    string
	Gain    float64
	Pan     float64
	Solo    bool
	Mute    bool
	Clips   []string
	Plugins []string
}

const treeTemplate = `{{- range . -}}
{{repeat .Depth "  "}}{{.Route}} {{.Kind}} {{.Name | quote}} gain={{printf "%.2f" .Gain}} pan={{printf "%+.2f" .Pan}}
{{- if .Solo}} solo{{end}}{{if .Mute}} mute{{end}}
{{- if .Clips}} clips=[{{.Clips | join ", "}}]{{end}}
{{- if .Plugins}} plugins=[{{.Plugins | join ", "}}]{{end}}
{{end -}}`

var treeTmpl = template.Must(template.New("tree").Funcs(sprig.TxtFuncMap()).Parse(treeTemplate))

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the routing tree of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			return printTree(cmd.OutOrStdout(), s.Tracks())
		},
	}
}

func printTree(w io.Writer, tracks []*nestrack.Node) error {
	caser := cases.Title(language.English)
	var rows []treeRow
	var visit func(n *nestrack.Node, route nestrack.Route)
	visit = func(n *nestrack.Node, route nestrack.Route) {
		kind := "group"
		if n.IsTrack {
			kind = "track"
		}
		row := treeRow{Route: route, Depth: len(route) - 1, Kind: caser.String(kind), Name: n.Name,
			Gain: n.Gain, Pan: n.Pan, Solo: n.Solo, Mute: n.Mute}
		for _, c := range n.Clips {
			row.Clips = append(row.Clips, fmt.Sprintf("%s@%d", c.Name, c.Start))
		}
		for _, p := range n.Plugins {
			if p.Bypassed {
				row.Plugins = append(row.Plugins, p.Identifier+" (bypassed)")
			} else {
				row.Plugins = append(row.Plugins, p.Identifier)
			}
		}
		rows = append(rows, row)
		for i, c := range n.Children {
			visit(c, route.Child(i))
		}
	}
	for i, t := range tracks {
		visit(t, nestrack.Route{i})
	}
	return treeTmpl.Execute(w, rows)
}

var treeCmd = newTreeCmd()

func init() {
	rootCmd.AddCommand(treeCmd)
}
