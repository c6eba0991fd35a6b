package compose

import (
	"fmt"

	"github.com/m1gwings/treedrawer/tree"
)

// wireEdge is one labeled edge in a component's wiring tree
type wireEdge struct {
	label string
	child Component
}

// wired is implemented by components built from other components
type wired interface {
	wireEdges() []wireEdge
}

func (c *composed) wireEdges() []wireEdge {
	return []wireEdge{
		{label: "into " + displayName(c.into), child: c.into},
		{label: c.key + " <- " + displayName(c.from), child: c.from},
	}
}

func (f *feedback) wireEdges() []wireEdge {
	return []wireEdge{
		{label: f.key + " <~ self", child: f.from},
	}
}

func (o *observed) wireEdges() []wireEdge {
	return []wireEdge{
		{label: "observed " + displayName(o.inner), child: o.inner},
	}
}

// Draw renders a component's wiring as a terminal tree: each composed edge
// appears as a child labeled with the input name it feeds. Leaf components
// render as their display name.
func Draw(c Component) string {
	t := tree.NewTree(tree.NodeString(displayName(c)))
	drawInto(t, c)
	return fmt.Sprint(t)
}

func drawInto(t *tree.Tree, c Component) {
	w, ok := c.(wired)
	if !ok {
		return
	}
	for i, edge := range w.wireEdges() {
		t.AddChild(tree.NodeString(edge.label))
		child, err := t.Child(i)
		if err != nil {
			continue
		}
		drawInto(child, edge.child)
	}
}
