package view

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Override returns the properties to force on e, or nil to leave it alone.
type Override func(e *Element) Style

// Transform is a presentation transform: overrides applied in order for the
// duration of a capture.
type Transform []Override

// PrintContrast darkens text and makes translucent backgrounds opaque. The
// live screen uses pale text and see-through panels that wash out in print.
var PrintContrast = Transform{darkText, opaqueBackground, fullOpacity}

const printTextColor = "#111827"

func darkText(e *Element) Style {
	if e.Text == "" && e.Style["color"] == "" {
		return nil
	}
	if e.Style["color"] == printTextColor {
		return nil
	}
	return Style{"color": printTextColor}
}

func opaqueBackground(e *Element) Style {
	bg, ok := e.Style["background-color"]
	if !ok {
		return nil
	}
	hex, changed := flattenRGBA(bg)
	if !changed {
		return nil
	}
	return Style{"background-color": hex}
}

func fullOpacity(e *Element) Style {
	if v, ok := e.Style["opacity"]; ok && v != "1" {
		return Style{"opacity": "1"}
	}
	return nil
}

// flattenRGBA blends an rgba() colour over white and returns it as #rrggbb.
func flattenRGBA(v string) (string, bool) {
	s := strings.TrimSpace(v)
	if !strings.HasPrefix(s, "rgba(") || !strings.HasSuffix(s, ")") {
		return v, false
	}
	parts := strings.Split(s[len("rgba("):len(s)-1], ",")
	if len(parts) != 4 {
		return v, false
	}
	var rgb [3]float64
	for i := range 3 {
		n, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return v, false
		}
		rgb[i] = n
	}
	alpha, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil || alpha < 0 || alpha > 1 {
		return v, false
	}
	blend := func(c float64) int {
		return int(c*alpha + 255*(1-alpha) + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", blend(rgb[0]), blend(rgb[1]), blend(rgb[2])), true
}

type savedProp struct {
	el    *Element
	prop  string
	value string
	had   bool
}

// Apply mutates v in place and returns a function that restores every
// touched property to its exact prior state, deleting properties that did
// not exist before. Calling restore more than once is a no-op.
func (t Transform) Apply(v *View) (restore func()) {
	var saved []savedProp
	var created []*Element
	seen := make(map[*Element]map[string]bool)

	v.Walk(func(e *Element) {
		for _, o := range t {
			props := o(e)
			for k, val := range props {
				if !seen[e][k] {
					if seen[e] == nil {
						seen[e] = make(map[string]bool)
					}
					seen[e][k] = true
					old, had := e.Style[k]
					saved = append(saved, savedProp{el: e, prop: k, value: old, had: had})
				}
				if e.Style == nil {
					e.Style = Style{}
					created = append(created, e)
				}
				e.Style[k] = val
			}
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(saved) - 1; i >= 0; i-- {
				s := saved[i]
				if s.had {
					s.el.Style[s.prop] = s.value
					continue
				}
				delete(s.el.Style, s.prop)
			}
			for _, e := range created {
				if len(e.Style) == 0 {
					e.Style = nil
				}
			}
		})
	}
}
