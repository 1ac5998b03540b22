package tcgscrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

type LocatorKind int

const (
	// LocateText reads the text content of the first match
	LocateText LocatorKind = iota
	// LocateAttr reads an attribute of the first match
	LocateAttr
)

func (k LocatorKind) String() string {
	switch k {
	case LocateText:
		return "text"
	case LocateAttr:
		return "attr"
	default:
		return fmt.Sprintf("LocatorKind(%d)", int(k))
	}
}

// Locator is one candidate way of addressing a field inside a listing node.
// An empty Selector addresses the node itself.
type Locator struct {
	Kind     LocatorKind
	Selector string
	Attr     string
}

func Text(selector string) Locator {
	return Locator{Kind: LocateText, Selector: selector}
}

func Attr(selector, attr string) Locator {
	return Locator{Kind: LocateAttr, Selector: selector, Attr: attr}
}

func (l Locator) String() string {
	if l.Kind == LocateAttr {
		return fmt.Sprintf("%s[@%s]", l.Selector, l.Attr)
	}

	return l.Selector
}

// Validate compiles the selector, goquery silently matches nothing on a bad one.
func (l Locator) Validate() error {
	if l.Kind == LocateAttr && l.Attr == "" {
		return fmt.Errorf("locator %q: empty attribute name", l.Selector)
	}

	if l.Selector == "" {
		return nil
	}

	return ValidateSelector(l.Selector)
}

// Find returns the value addressed in node and whether it matched.
// Matches that yield only whitespace do not count.
func (l Locator) Find(node *goquery.Selection) (string, bool) {
	sel := node
	if l.Selector != "" {
		sel = node.Find(l.Selector)
	}

	sel = sel.First()
	if sel.Length() == 0 {
		return "", false
	}

	var v string

	switch l.Kind {
	case LocateAttr:
		v, _ = sel.Attr(l.Attr)
		v = strings.TrimSpace(v)
	default:
		v = collapseSpace(sel.Text())
	}

	return v, v != ""
}

// Extract tries locators in order and returns the first non-empty match,
// or def when none matches. Only a missing node is an error.
func Extract(node *goquery.Selection, locators []Locator, def string) (string, error) {
	if node == nil || node.Length() == 0 {
		return "", ErrEmptyNode
	}

	for _, l := range locators {
		if v, ok := l.Find(node); ok {
			return v, nil
		}
	}

	return def, nil
}

// Fields holds the ordered locators of each row field.
type Fields struct {
	Name      []Locator
	Price     []Locator
	Condition []Locator
}

func (f Fields) Validate() error {
	for name, ls := range map[string][]Locator{
		"name":      f.Name,
		"price":     f.Price,
		"condition": f.Condition,
	} {
		for _, l := range ls {
			if err := l.Validate(); err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
		}
	}

	return nil
}

func ValidateSelector(selector string) error {
	if _, err := cascadia.Compile(selector); err != nil {
		return fmt.Errorf("selector %q: %w", selector, err)
	}

	return nil
}
