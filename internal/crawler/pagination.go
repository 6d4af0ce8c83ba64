package crawler

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// XPath expressions locating the "Next" pagination link.
const (
	// NextPageXPath finds the link inside the pagination region.
	NextPageXPath = "//nav[@id='pagination']//a[contains(normalize-space(.), 'Next')]"

	// FallbackNextPageXPath is tried when the pagination region is absent.
	FallbackNextPageXPath = "//a[contains(normalize-space(.), 'Next')]"
)

// NextControl describes the "Next" link found on a page.
type NextControl struct {
	// XPath is the expression that located the link.
	XPath string

	// Href is the link target, possibly empty or a javascript: URL.
	Href string

	// Text is the cleaned link text.
	Text string

	// Enabled is false when the link or its list item is disabled or hidden.
	Enabled bool
}

// FindNextControl looks for the "Next" link in an HTML snapshot.
// It returns nil when no link is present.
func FindNextControl(content string) (*NextControl, error) {
	doc, err := htmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPagination, err)
	}

	for _, expr := range []string{NextPageXPath, FallbackNextPageXPath} {
		nodes, err := htmlquery.QueryAll(doc, expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPagination, err)
		}
		if len(nodes) == 0 {
			continue
		}

		link := nodes[0]
		return &NextControl{
			XPath:   expr,
			Href:    htmlquery.SelectAttr(link, "href"),
			Text:    CleanText(htmlquery.InnerText(link)),
			Enabled: !controlDisabled(link) && !controlDisabled(parentItem(link)),
		}, nil
	}

	return nil, nil
}

// HasNextControl reports whether the snapshot has an enabled "Next" link.
func HasNextControl(content string) (bool, error) {
	ctrl, err := FindNextControl(content)
	if err != nil {
		return false, err
	}
	return ctrl != nil && ctrl.Enabled, nil
}

// parentItem returns the enclosing <li> of a link, or nil.
func parentItem(n *html.Node) *html.Node {
	if n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.Data == "li" {
		return n.Parent
	}
	return nil
}

// controlDisabled reports whether a node is disabled or hidden by its attributes.
func controlDisabled(n *html.Node) bool {
	if n == nil {
		return false
	}

	for _, attr := range n.Attr {
		val := strings.ToLower(strings.TrimSpace(attr.Val))
		switch attr.Key {
		case "disabled", "hidden":
			return true
		case "aria-disabled":
			if val == "true" {
				return true
			}
		case "class":
			for _, class := range strings.Fields(val) {
				if class == "disabled" {
					return true
				}
			}
		case "style":
			if HiddenStyle(val) {
				return true
			}
		}
	}
	return false
}

// HiddenStyle reports whether an inline style hides the element.
func HiddenStyle(style string) bool {
	compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden")
}
