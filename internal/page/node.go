package page

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	return slices.ContainsFunc(n.Attr, func(a html.Attribute) bool { return a.Key == key })
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool { return a.Key == key })
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

// valueOf reads what the user sees in n: the value of inputs, the selected
// option of selects and the text content of everything else.
func valueOf(n *html.Node) string {
	switch n.DataAtom {
	case atom.Input:
		return attr(n, "value")
	case atom.Select:
		var first *html.Node
		var selected string
		found := false
		walk(n, func(c *html.Node) {
			if found || c.DataAtom != atom.Option {
				return
			}
			if first == nil {
				first = c
			}
			if hasAttr(c, "selected") {
				selected, found = optionValue(c), true
			}
		})
		if found {
			return selected
		}
		if first != nil {
			return optionValue(first)
		}
		return ""
	}
	return textContent(n)
}

func setValue(n *html.Node, text string) {
	switch n.DataAtom {
	case atom.Input:
		setAttr(n, "value", text)
		return
	case atom.Select:
		walk(n, func(c *html.Node) {
			if c.DataAtom != atom.Option {
				return
			}
			if optionValue(c) == text {
				setAttr(c, "selected", "")
			} else {
				removeAttr(c, "selected")
			}
		})
		return
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func optionValue(n *html.Node) string {
	if hasAttr(n, "value") {
		return attr(n, "value")
	}
	return strings.TrimSpace(textContent(n))
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}
