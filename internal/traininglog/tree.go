package traininglog

import (
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
)

// Kind tags what a Node holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Node is one value in a training log tree. Scalars are leaves holding their
// text in Value; objects and arrays hold ordered, named Children. Array
// elements are named by their index.
type Node struct {
	Name     string
	Kind     Kind
	Value    string
	Children []*Node
}

// IsLeaf reports whether n is a scalar.
func (n *Node) IsLeaf() bool {
	return n.Kind != KindObject && n.Kind != KindArray
}

// Child returns the first child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Float returns a numeric leaf's value. Numeric strings such as "82.5" are
// accepted since hand-written logs often quote them.
func (n *Node) Float() (float64, bool) {
	if n.Kind != KindNumber && n.Kind != KindString {
		return 0, false
	}
	v, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Parse decodes a JSON document into a tree, keeping object keys in
// document order.
func Parse(data []byte) (*Node, error) {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("parsing log: %w", err)
	}
	root, err := build("", value, dataType)
	if err != nil {
		return nil, fmt.Errorf("parsing log: %w", err)
	}
	return root, nil
}

func build(name string, value []byte, dataType jsonparser.ValueType) (*Node, error) {
	n := &Node{Name: name}
	switch dataType {
	case jsonparser.Null:
		n.Kind = KindNull
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		n.Kind, n.Value = KindString, s
	case jsonparser.Number:
		n.Kind, n.Value = KindNumber, string(value)
	case jsonparser.Boolean:
		n.Kind, n.Value = KindBool, string(value)
	case jsonparser.Object:
		n.Kind = KindObject
		err := jsonparser.ObjectEach(value, func(key, v []byte, dt jsonparser.ValueType, _ int) error {
			k, err := jsonparser.ParseString(key)
			if err != nil {
				return err
			}
			child, err := build(k, v, dt)
			if err != nil {
				return err
			}
			n.Children = append(n.Children, child)
			return nil
		})
		if err != nil {
			return nil, err
		}
	case jsonparser.Array:
		n.Kind = KindArray
		var buildErr error
		i := 0
		_, err := jsonparser.ArrayEach(value, func(v []byte, dt jsonparser.ValueType, _ int, err error) {
			if buildErr != nil {
				return
			}
			if err != nil {
				buildErr = err
				return
			}
			child, err := build(strconv.Itoa(i), v, dt)
			if err != nil {
				buildErr = err
				return
			}
			n.Children = append(n.Children, child)
			i++
		})
		if err != nil {
			return nil, err
		}
		if buildErr != nil {
			return nil, buildErr
		}
	default:
		return nil, fmt.Errorf("%s: unsupported value type %s", name, dataType)
	}
	return n, nil
}
