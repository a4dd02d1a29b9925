// Package sanitize reduces untrusted rich-text message content to a safe
// subset for storage and rendering, and extracts plain text from it.
package sanitize

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// allowedTags is the fixed element allow-list. Everything else is
// unwrapped: its children are promoted to the parent and the element
// itself is discarded.
var allowedTags = map[string]bool{
	"b": true, "strong": true, "i": true, "em": true, "u": true,
	"p": true, "br": true, "ul": true, "ol": true, "li": true,
	"blockquote": true, "code": true, "pre": true, "div": true,
	"a": true,
}

// discardTags hold no renderable text; their contents are dropped
// instead of promoted.
var discardTags = map[string]bool{
	"script": true, "style": true, "iframe": true, "noscript": true,
	"object": true, "embed": true, "title": true,
}

var (
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	nbspRunRe   = regexp.MustCompile("\u00a0+")
	zeroWidthRe = regexp.MustCompile("[\u200b\u200c\u200d\ufeff]")
)

// Sanitize converts raw rich-text into the allowed subset. Disallowed
// elements are unwrapped, all attributes are stripped except a validated
// href, inline bold/italic/underline styles are rewritten to semantic
// wrappers, zero-width spaces are removed, and non-breaking-space runs
// collapse to a single space. Malformed markup never fails; the worst
// case is over-aggressive stripping.
func Sanitize(raw string) string {
	root, err := parseFragment(raw)
	if err != nil {
		return strings.TrimSpace(StripTags(raw))
	}
	normalizeInlineStyles(root)
	sanitizeChildren(root)
	cleanText(root)
	return strings.TrimSpace(renderChildren(root))
}

// StripTags is the degraded mode for surfaces with no rich renderer.
// It removes anything that looks like a tag but performs no attribute
// or scheme validation; callers must not treat it as equivalent to
// Sanitize.
func StripTags(raw string) string {
	return tagRe.ReplaceAllString(raw, "")
}

// PlainText returns the rendered text content of the markup, with
// zero-width spaces stripped. Accepts sanitized or raw input.
func PlainText(markup string) string {
	root, err := parseFragment(markup)
	if err != nil {
		return zeroWidthRe.ReplaceAllString(StripTags(markup), "")
	}
	var b strings.Builder
	collectText(root, &b)
	return zeroWidthRe.ReplaceAllString(b.String(), "")
}

func parseFragment(raw string) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(raw), context)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// sanitizeChildren walks the children of parent, unwrapping disallowed
// elements and stripping attributes from allowed ones.
func sanitizeChildren(parent *html.Node) {
	child := parent.FirstChild
	for child != nil {
		next := child.NextSibling
		switch child.Type {
		case html.ElementNode:
			tag := strings.ToLower(child.Data)
			switch {
			case discardTags[tag]:
				parent.RemoveChild(child)
			case allowedTags[tag]:
				stripAttributes(child, tag)
				sanitizeChildren(child)
			default:
				next = unwrap(parent, child)
			}
		case html.CommentNode, html.DoctypeNode:
			parent.RemoveChild(child)
		}
		child = next
	}
}

// unwrap promotes child's children into parent at child's position and
// removes child. Returns the first promoted node so the caller re-scans
// the promoted content.
func unwrap(parent, child *html.Node) *html.Node {
	first := child.FirstChild
	next := child.NextSibling
	for child.FirstChild != nil {
		grand := child.FirstChild
		child.RemoveChild(grand)
		parent.InsertBefore(grand, child)
	}
	parent.RemoveChild(child)
	if first != nil {
		return first
	}
	return next
}

func stripAttributes(n *html.Node, tag string) {
	if tag != "a" {
		n.Attr = nil
		return
	}
	href, ok := validHref(n.Attr)
	if !ok {
		n.Attr = nil
		return
	}
	n.Attr = []html.Attribute{
		{Key: "href", Val: href},
		{Key: "target", Val: "_blank"},
		{Key: "rel", Val: "noreferrer"},
	}
}

func validHref(attrs []html.Attribute) (string, bool) {
	for _, attr := range attrs {
		if attr.Namespace != "" || strings.ToLower(attr.Key) != "href" {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(attr.Val))
		if err != nil {
			return "", false
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "mailto":
			return u.String(), true
		}
		return "", false
	}
	return "", false
}

// normalizeInlineStyles rewrites style-based bold/italic/underline into
// semantic wrapper elements, nesting in the order bold, italic,
// underline when several apply.
func normalizeInlineStyles(n *html.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		normalizeInlineStyles(child)
	}
	if n.Type != html.ElementNode {
		return
	}
	style, ok := styleAttr(n)
	if !ok {
		return
	}
	bold, italic, underline := parseTextStyles(style)
	if !bold && !italic && !underline {
		return
	}

	innermost := n
	wrapIn := func(tag string, a atom.Atom) {
		wrapper := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: a}
		for innermost.FirstChild != nil {
			grand := innermost.FirstChild
			innermost.RemoveChild(grand)
			wrapper.AppendChild(grand)
		}
		innermost.AppendChild(wrapper)
		innermost = wrapper
	}
	if bold {
		wrapIn("b", atom.B)
	}
	if italic {
		wrapIn("i", atom.I)
	}
	if underline {
		wrapIn("u", atom.U)
	}
}

func styleAttr(n *html.Node) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && strings.ToLower(attr.Key) == "style" {
			return attr.Val, true
		}
	}
	return "", false
}

func parseTextStyles(style string) (bold, italic, underline bool) {
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.ToLower(strings.TrimSpace(value))
		switch name {
		case "font-weight":
			if value == "bold" || value == "bolder" || value >= "600" && value <= "900" && len(value) == 3 {
				bold = true
			}
		case "font-style":
			if value == "italic" || value == "oblique" {
				italic = true
			}
		case "text-decoration", "text-decoration-line":
			if strings.Contains(value, "underline") {
				underline = true
			}
		}
	}
	return bold, italic, underline
}

// cleanText strips zero-width spaces and collapses non-breaking-space
// runs in every text node.
func cleanText(n *html.Node) {
	if n.Type == html.TextNode {
		n.Data = zeroWidthRe.ReplaceAllString(n.Data, "")
		n.Data = nbspRunRe.ReplaceAllString(n.Data, " ")
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		cleanText(child)
	}
}

func renderChildren(root *html.Node) string {
	var b strings.Builder
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&b, child); err != nil {
			return StripTags(b.String())
		}
	}
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode && discardTags[strings.ToLower(n.Data)] {
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, b)
	}
}
