package fmf

import (
	"maps"
	"slices"
	"sort"
	"strconv"

	"github.com/maruel/natural"

	"fmfc/utils/debug"
)

// String returns readable dump of the node tree. It exists solely for manual
// inspection during debugging.
func (n *Node) String() string {
	if n == nil {
		return "<nil Node>"
	}
	tw := debug.NewTreeWriter()
	dumpNode(tw, 0, "document", n)
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, depth int, label string, n *Node) {
	switch n.Kind() {
	case KindEmpty:
		tw.Line(depth, "%s: <empty>", label)
	case KindText:
		tw.Value(depth, label, n.Text())
	case KindNumber:
		v, _ := n.Int()
		tw.Line(depth, "%s: %d", label, v)
	case KindMapping:
		tw.Line(depth, "%s: {%d}", label, n.Len())
		for _, f := range n.fields {
			if f.IsSequence() {
				tw.Line(depth+1, "%s: [%d]", f.Key, len(f.Nodes))
				for i, c := range f.Nodes {
					dumpNode(tw, depth+2, "#"+strconv.Itoa(i), c)
				}
				continue
			}
			dumpNode(tw, depth+1, f.Key, f.Nodes[0])
		}
	}
}

// DocumentNames returns names of decoded documents in natural order.
func (d *Data) DocumentNames() []string {
	if d == nil {
		return nil
	}
	names := slices.Collect(maps.Keys(d.Documents))
	sort.Sort(natural.StringSlice(names))
	return names
}

// String returns readable dump of the result.
func (d *Data) String() string {
	if d == nil {
		return "<nil Data>"
	}
	tw := debug.NewTreeWriter()
	s := d.Summary()
	tw.Line(0, "Players: %d", s.Players)
	for _, p := range d.Players {
		tw.Line(1, "Player[%q] %s %s ability[%d] potential[%d]", p.ID, p.FirstName, p.LastName, p.Ability, p.Potential)
	}
	tw.Line(0, "Clubs: %d", s.Clubs)
	for _, c := range d.Clubs {
		tw.Line(1, "Club[%q] %s nation[%s] reputation[%d]", c.ID, c.Name, c.Nation, c.Reputation)
	}
	tw.Line(0, "Competitions: %d", s.Competitions)
	for _, c := range d.Competitions {
		tw.Line(1, "Competition[%q] %s type[%s] nation[%s]", c.ID, c.Name, c.Type, c.Nation)
	}
	tw.Line(0, "Documents: %d", s.Documents)
	for _, name := range d.DocumentNames() {
		tw.Line(1, "%s", name)
	}
	if s.Skipped > 0 {
		tw.Line(0, "Skipped: %d", s.Skipped)
		for _, e := range d.Skipped {
			tw.Line(1, "%s: %v", e.Entry, e.Err)
		}
	}
	return tw.String()
}
