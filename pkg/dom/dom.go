// Package dom is a small query layer over rendered report pages. It knows the
// element identifiers the page layout emits so tests and tools can inspect
// navigation, build info and footer without ad hoc parsing.
package dom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ErrNotFound is returned when a required region is missing from the document
var ErrNotFound = errors.New("element not found")

// Element wraps an element node
type Element struct {
	node *html.Node
}

// Document is a parsed HTML page
type Document struct {
	Element
}

// Link is an anchor's text and target
type Link struct {
	Label string
	Href  string
}

// Parse parses an HTML document
func Parse(source string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{Element{node: root}}, nil
}

// Tag returns the element name
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the attribute value or an empty string
func (e *Element) Attr(name string) string {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether the class attribute contains class
func (e *Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Attr("class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Text returns the text content with whitespace collapsed
func (e *Element) Text() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// ByID returns the first descendant with the given id
func (e *Element) ByID(id string) (*Element, bool) {
	found := e.find(func(n *html.Node) bool { return attr(n, "id") == id }, true)
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

// All returns every descendant matching a simple selector: "tag", ".class", "#id" or "tag.class"
func (e *Element) All(selector string) []*Element {
	match := compile(selector)
	return e.find(match, false)
}

// First returns the first descendant matching selector
func (e *Element) First(selector string) (*Element, bool) {
	found := e.find(compile(selector), true)
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

// Children returns the direct element children matching selector; an empty selector matches all
func (e *Element) Children(selector string) []*Element {
	match := compile(selector)
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			out = append(out, &Element{node: c})
		}
	}
	return out
}

// Links returns every anchor below the element
func (e *Element) Links() []Link {
	anchors := e.All("a")
	links := make([]Link, 0, len(anchors))
	for _, a := range anchors {
		links = append(links, Link{Label: a.Text(), Href: a.Attr("href")})
	}
	return links
}

func (e *Element) find(match func(*html.Node) bool, firstOnly bool) []*Element {
	var out []*Element
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, &Element{node: c})
				if firstOnly {
					return true
				}
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(e.node)
	return out
}

func compile(selector string) func(*html.Node) bool {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return func(*html.Node) bool { return true }
	}
	if strings.HasPrefix(selector, "#") {
		id := selector[1:]
		return func(n *html.Node) bool { return attr(n, "id") == id }
	}

	tag, class, _ := strings.Cut(selector, ".")
	return func(n *html.Node) bool {
		if tag != "" && n.Data != tag {
			return false
		}
		if class == "" {
			return true
		}
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
