package drawer

import (
	"html"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Stage names are free text: DOT identifiers are quoted with inner quotes escaped and the
// HTML labels are escaped.
var dotTemplate = template.Must(template.New("dot").Funcs(template.FuncMap{
	"id":     dotID,
	"attrs":  dotAttributes,
	"escape": html.EscapeString,
}).Parse(`strict digraph {
	rankdir="TB";
{{- range .Nodes}}
	{{id .Name}} [{{if .Elapsed}}label=<{{escape .Name}} <BR /> <FONT POINT-SIZE="12">{{escape .Elapsed}}</FONT>>, {{end}}{{attrs .Attributes}}];
{{- end}}
{{- range .Edges}}
	{{id .From}} -> {{id .To}} [{{attrs .Attributes}}];
{{- end}}
}
`))

type dotNode struct {
	Name       string
	Elapsed    string
	Attributes map[string]string
}

type dotEdge struct {
	From, To   string
	Attributes map[string]string
}

func dotID(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func dotAttributes(attributes map[string]string) string {
	keys := lo.Keys(attributes)
	sort.Strings(keys)

	return strings.Join(lo.Map(keys, func(k string, _ int) string {
		return k + "=" + dotID(attributes[k])
	}), ", ")
}

// render writes the stages in the order they ran, then the links between them.
func (d *DOTDrawer) render(w io.Writer) error {
	adjacency, err := d.graph.AdjacencyMap()
	if err != nil {
		return errors.Wrap(err, "unable to get adjacency map")
	}

	position := make(map[string]int, len(d.order))
	for i, name := range d.order {
		position[name] = i
	}

	var (
		nodes []dotNode
		edges []dotEdge
	)

	for _, name := range d.order {
		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrapf(err, "unable to get vertex %s", name)
		}

		node := dotNode{Name: name, Attributes: lo.OmitByKeys(properties.Attributes, []string{"xlabel"})}
		node.Elapsed = properties.Attributes["xlabel"]
		nodes = append(nodes, node)

		targets := lo.Keys(adjacency[name])
		sort.Slice(targets, func(i, j int) bool {
			return position[targets[i]] < position[targets[j]]
		})

		for _, target := range targets {
			edges = append(edges, dotEdge{From: name, To: target, Attributes: adjacency[name][target].Properties.Attributes})
		}
	}

	err = dotTemplate.Execute(w, struct {
		Nodes []dotNode
		Edges []dotEdge
	}{Nodes: nodes, Edges: edges})
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}
