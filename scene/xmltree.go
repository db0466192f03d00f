package scene

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// element is a minimal DOM node. Character data is dropped; the source
// formats carry everything in attributes.
type element struct {
	Name     string
	Attrs    Attrs
	Children []*element
}

// decodeTree reads one well-formed document and returns its root element.
func decodeTree(r io.Reader, file string) (*element, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var stack []*element
	var root *element
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if root == nil {
					return nil, &Error{Kind: ErrStructural, File: file, Message: "no root element"}
				}
				if len(stack) > 0 {
					return nil, &Error{Kind: ErrStructural, File: file, Message: fmt.Sprintf("unexpected EOF before </%s>", stack[len(stack)-1].Name)}
				}
				return root, nil
			}
			return nil, wrapXMLError(err, file, "parse xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{Name: t.Name.Local, Attrs: attrsOf(t.Attr)}
			if len(stack) == 0 {
				if root != nil {
					return nil, &Error{Kind: ErrStructural, File: file, Message: fmt.Sprintf("second root element <%s>", el.Name)}
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
}

// child returns the first direct child with the given name.
func (e *element) child(name string) *element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// childrenNamed returns the direct children with the given name in document order.
func (e *element) childrenNamed(name string) []*element {
	var out []*element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// find returns the first descendant (pre-order, excluding e) with the given name.
func (e *element) find(name string) *element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
		if hit := c.find(name); hit != nil {
			return hit
		}
	}
	return nil
}

// findAll walks a path of names from any descendant matching the first step,
// like ElementTree's ".//A/B/C". Results keep document order.
func (e *element) findAll(path ...string) []*element {
	if len(path) == 0 {
		return nil
	}
	var out []*element
	var walk func(n *element)
	walk = func(n *element) {
		for _, c := range n.Children {
			if c.Name == path[0] {
				out = append(out, c.descend(path[1:])...)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

func (e *element) descend(path []string) []*element {
	if len(path) == 0 {
		return []*element{e}
	}
	var out []*element
	for _, c := range e.childrenNamed(path[0]) {
		out = append(out, c.descend(path[1:])...)
	}
	return out
}
