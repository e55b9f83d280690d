package traininglog

import (
	"strings"
)

// Path addresses a node by the names of the nodes leading to it. The root
// has an empty path.
type Path []string

func (p Path) String() string {
	return "/" + strings.Join(p, "/")
}

// ParsePath is the inverse of Path.String.
func ParsePath(s string) Path {
	s = strings.Trim(s, "/")
	if s == "" {
		return Path{}
	}
	return Path(strings.Split(s, "/"))
}

// Matcher decides whether a node belongs in a Find result.
type Matcher func(n *Node) bool

// ByName matches nodes with the given name.
func ByName(name string) Matcher {
	return func(n *Node) bool { return n.Name == name }
}

// ByValue matches leaves whose text equals value.
func ByValue(value string) Matcher {
	return func(n *Node) bool { return n.IsLeaf() && n.Value == value }
}

// ByKind matches nodes of the given kind.
func ByKind(k Kind) Matcher {
	return func(n *Node) bool { return n.Kind == k }
}

// And matches nodes accepted by every matcher.
func And(ms ...Matcher) Matcher {
	return func(n *Node) bool {
		for _, m := range ms {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// walk visits every node depth-first in pre-order. The path passed to fn is
// reused between calls.
func walk(root *Node, fn func(n *Node, path Path)) {
	var visit func(n *Node, path Path)
	visit = func(n *Node, path Path) {
		fn(n, path)
		for _, c := range n.Children {
			visit(c, append(path, c.Name))
		}
	}
	visit(root, Path{})
}

// Find walks the tree depth-first and returns the paths of all matching
// nodes in pre-order.
func Find(root *Node, match Matcher) []Path {
	var out []Path
	walk(root, func(n *Node, path Path) {
		if match(n) {
			out = append(out, append(Path(nil), path...))
		}
	})
	return out
}

// Get resolves a path from root. When an object repeats a key, the first
// child with that name is taken.
func Get(root *Node, path Path) (*Node, bool) {
	n := root
	for _, name := range path {
		c, ok := n.Child(name)
		if !ok {
			return nil, false
		}
		n = c
	}
	return n, true
}
