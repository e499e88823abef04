// Package view models the rendered diagnosis result screen as a tree of
// elements with inline styles. Exports capture a View; presentation
// transforms adjust its styling for the duration of a capture only.
package view

import (
	"maps"
	"slices"
	"strings"
)

// Style is an element's inline style: CSS property -> value.
type Style map[string]string

// CSS renders the style as a declaration list with properties sorted.
func (s Style) CSS() string {
	if len(s) == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range slices.Sorted(maps.Keys(s)) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(s[k])
		b.WriteByte(';')
	}
	return b.String()
}

type Element struct {
	Tag      string
	ID       string
	Class    string
	Style    Style
	Text     string
	Children []*Element
}

// el copies style so elements never share a map.
func el(tag string, style Style, text string, children ...*Element) *Element {
	return &Element{Tag: tag, Style: maps.Clone(style), Text: text, Children: children}
}

func (e *Element) withID(id string) *Element {
	e.ID = id
	return e
}

func (e *Element) withClass(class string) *Element {
	e.Class = class
	return e
}

func (e *Element) clone() *Element {
	c := &Element{
		Tag:   e.Tag,
		ID:    e.ID,
		Class: e.Class,
		Text:  e.Text,
	}
	if e.Style != nil {
		c.Style = maps.Clone(e.Style)
	}
	if len(e.Children) > 0 {
		c.Children = make([]*Element, len(e.Children))
		for i, ch := range e.Children {
			c.Children[i] = ch.clone()
		}
	}
	return c
}

// View is a rendered result screen.
type View struct {
	Title string
	Width int
	Root  *Element
}

// Clone returns a deep copy that shares no elements or styles with v.
func (v *View) Clone() *View {
	c := &View{Title: v.Title, Width: v.Width}
	if v.Root != nil {
		c.Root = v.Root.clone()
	}
	return c
}

// Walk visits every element depth-first, parents before children.
func (v *View) Walk(fn func(*Element)) {
	if v.Root == nil {
		return
	}
	var walk func(*Element)
	walk = func(e *Element) {
		fn(e)
		for _, ch := range e.Children {
			walk(ch)
		}
	}
	walk(v.Root)
}

// Find returns the first element with the given id.
func (v *View) Find(id string) *Element {
	var found *Element
	v.Walk(func(e *Element) {
		if found == nil && e.ID == id {
			found = e
		}
	})
	return found
}

// Styles snapshots every element's inline style in walk order.
func (v *View) Styles() []Style {
	var out []Style
	v.Walk(func(e *Element) {
		out = append(out, maps.Clone(e.Style))
	})
	return out
}
