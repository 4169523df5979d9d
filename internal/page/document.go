// Package page models a rendered dashboard section as a parsed HTML tree.
// Data-bound fields are elements carrying a data-field attribute; their
// domain comes from data-table on the element or its nearest ancestor.
package page

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

const (
	attrField    = "data-field"
	attrTable    = "data-table"
	attrControls = "data-edit-controls"
	attrEditable = "contenteditable"
	classActive  = "active"
	classSection = "section-content"
	classTab     = "tab-content"
)

// Field describes one data-bound element of a section.
type Field struct {
	Domain domain.Domain `json:"domain,omitempty"`
	Name   string        `json:"name"`
	Tag    string        `json:"tag"`
	// Native is set for form controls that manage their own editing.
	Native   bool `json:"native"`
	Editable bool `json:"editable"`
	Disabled bool `json:"disabled,omitempty"`
}

// Selection is the text range placed over a field being edited.
type Selection struct {
	Domain domain.Domain `json:"domain"`
	Field  string        `json:"field"`
	Start  int           `json:"start"`
	End    int           `json:"end"`
}

// Document is one section's container with its injected markup. It is
// safe for concurrent use.
type Document struct {
	mu        sync.Mutex
	name      string
	root      *html.Node
	selection *Selection
}

// Parse injects markup into a fresh "<name>-section" container.
func Parse(name, markup string) (*Document, error) {
	return parse(name, name+"-section", classSection, markup)
}

// ParseTab injects a nested tab's markup into a "<section>-<tab>-tab"
// container. The document is named "<section>/<tab>".
func ParseTab(section, tab, markup string) (*Document, error) {
	return parse(section+"/"+tab, section+"-"+tab+"-tab", classTab, markup)
}

func parse(name, id, class, markup string) (*Document, error) {
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "id", Val: id},
			{Key: "class", Val: class},
		},
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return nil, fmt.Errorf("page: parse %s: %w", name, err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	return &Document{name: name, root: root}, nil
}

// Name returns the section name.
func (d *Document) Name() string { return d.name }

// Fields lists every data-bound element in document order.
func (d *Document) Fields() []Field {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []Field
	walk(d.root, func(n *html.Node) {
		if f, ok := describe(n); ok {
			out = append(out, f)
		}
	})
	return out
}

// FieldsOf lists the fields bound to dom, one entry per field name.
func (d *Document) FieldsOf(dom domain.Domain) []Field {
	var out []Field
	for _, f := range d.Fields() {
		if f.Domain != dom {
			continue
		}
		if slices.ContainsFunc(out, func(o Field) bool { return o.Name == f.Name }) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Has reports whether the document binds (dom, field).
func (d *Document) Has(dom domain.Domain, field string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.find(dom, field)) > 0
}

// Text returns the current value of the first element bound to
// (dom, field). For native controls this is the control's value.
func (d *Document) Text(dom domain.Domain, field string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	nodes := d.find(dom, field)
	if len(nodes) == 0 {
		return "", false
	}
	return valueOf(nodes[0]), true
}

// SetText replaces the value of every element bound to (dom, field) and
// returns how many elements were updated.
func (d *Document) SetText(dom domain.Domain, field, text string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	nodes := d.find(dom, field)
	for _, n := range nodes {
		setValue(n, text)
	}
	return len(nodes)
}

// Options returns the option values of the select bound to (dom, field).
// It reports false when the field is not a select.
func (d *Document) Options(dom domain.Domain, field string) ([]string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, n := range d.find(dom, field) {
		if n.DataAtom != atom.Select {
			continue
		}
		var values []string
		walk(n, func(c *html.Node) {
			if c.DataAtom == atom.Option {
				values = append(values, optionValue(c))
			}
		})
		return values, true
	}
	return nil, false
}

// SetEditable toggles direct text editing on the display elements bound
// to (dom, field). Native controls are left alone.
func (d *Document) SetEditable(dom domain.Domain, field string, on bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	changed := false
	for _, n := range d.find(dom, field) {
		if isNative(n) {
			continue
		}
		if on {
			setAttr(n, attrEditable, "true")
		} else {
			removeAttr(n, attrEditable)
		}
		changed = true
	}
	if !on && d.selection != nil && d.selection.Domain == dom && d.selection.Field == field {
		d.selection = nil
	}
	return changed
}

// IsEditable reports whether (dom, field) currently accepts direct edits.
func (d *Document) IsEditable(dom domain.Domain, field string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, n := range d.find(dom, field) {
		if hasAttr(n, attrEditable) {
			return true
		}
	}
	return false
}

// SelectAll places the selection over the full text of (dom, field).
func (d *Document) SelectAll(dom domain.Domain, field string) (Selection, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	nodes := d.find(dom, field)
	if len(nodes) == 0 {
		return Selection{}, false
	}
	sel := Selection{Domain: dom, Field: field, End: len([]rune(valueOf(nodes[0])))}
	d.selection = &sel
	return sel, true
}

// Selection returns the current selection, if any.
func (d *Document) Selection() (Selection, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.selection == nil {
		return Selection{}, false
	}
	return *d.selection, true
}

// SetDisabled enables or disables every native control bound to dom.
func (d *Document) SetDisabled(dom domain.Domain, disabled bool) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	count := 0
	walk(d.root, func(n *html.Node) {
		f, ok := describe(n)
		if !ok || f.Domain != dom || !f.Native {
			return
		}
		if disabled {
			setAttr(n, "disabled", "")
		} else {
			removeAttr(n, "disabled")
		}
		count++
	})
	return count
}

// SetControlsVisible shows or hides the save/cancel controls of dom,
// i.e. elements with data-edit-controls="<dom>".
func (d *Document) SetControlsVisible(dom domain.Domain, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	walk(d.root, func(n *html.Node) {
		if n.Type != html.ElementNode || attr(n, attrControls) != dom.String() {
			return
		}
		if visible {
			removeAttr(n, "hidden")
		} else {
			setAttr(n, "hidden", "")
		}
	})
}

// SetActive toggles the container's "active" class.
func (d *Document) SetActive(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	classes := strings.Fields(attr(d.root, "class"))
	classes = slices.DeleteFunc(classes, func(c string) bool { return c == classActive })
	if on {
		classes = append(classes, classActive)
	}
	setAttr(d.root, "class", strings.Join(classes, " "))
}

// Active reports whether the section is the visible one.
func (d *Document) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return hasClass(d.root, classActive)
}

// Render serializes the container and its contents.
func (d *Document) Render() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", fmt.Errorf("page: render %s: %w", d.name, err)
	}
	return buf.String(), nil
}

func (d *Document) find(dom domain.Domain, field string) []*html.Node {
	var out []*html.Node
	walk(d.root, func(n *html.Node) {
		if f, ok := describe(n); ok && f.Domain == dom && f.Name == field {
			out = append(out, n)
		}
	})
	return out
}

func describe(n *html.Node) (Field, bool) {
	if n.Type != html.ElementNode {
		return Field{}, false
	}
	name := attr(n, attrField)
	if name == "" {
		return Field{}, false
	}
	return Field{
		Domain:   tableOf(n),
		Name:     name,
		Tag:      n.Data,
		Native:   isNative(n),
		Editable: hasAttr(n, attrEditable),
		Disabled: hasAttr(n, "disabled"),
	}, true
}

func tableOf(n *html.Node) domain.Domain {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && hasAttr(p, attrTable) {
			return domain.Domain(attr(p, attrTable))
		}
	}
	return ""
}

func isNative(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Input, atom.Select, atom.Textarea:
		return true
	}
	return false
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
