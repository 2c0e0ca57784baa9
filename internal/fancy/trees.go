package fancy

import (
	"github.com/charmbracelet/lipgloss/tree"
)

// Report is a titled tree of sections.
type Report struct {
	tree *tree.Tree
}

// NewReport creates a report whose root is the rendered title.
func NewReport(title string) *Report {
	return &Report{tree: Tree().Root(RootStyle.Render(title))}
}

// Tree returns the underlying tree
func (r *Report) Tree() *tree.Tree {
	return r.tree
}

// Section adds a header branch and returns it for further children.
func (r *Report) Section(title, count string) *tree.Tree {
	b := BranchNode(title, count)
	r.tree.Child(b)
	return b
}

// Add appends a leaf or subtree to the root.
func (r *Report) Add(child any) *Report {
	r.tree.Child(child)
	return r
}

func (r *Report) String() string {
	return r.tree.String()
}
