// Package xmlrec maps tag-delimited XML elements onto typed record fields.
//
// Both external APIs speak XML of the form
// <interval><ixInterval>2</ixInterval><sTitle>Fix bug</sTitle></interval>,
// so record parsing is a static table of (tag, setter) pairs applied to a
// decoded element tree. One table per record shape, no per-shape decoding
// code.
package xmlrec

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	// TimestampLayout is the IETF-like timestamp both APIs emit.
	TimestampLayout = "2006-01-02T15:04:05Z"
	// DatestampLayout is the date-only form.
	DatestampLayout = "2006-01-02"
)

// Element is a generic XML node: its name, trimmed character data and
// child elements in document order.
type Element struct {
	XMLName  xml.Name
	Text     string    `xml:",chardata"`
	Children []Element `xml:",any"`
}

// Parse decodes an XML document from r into an Element tree.
func Parse(r io.Reader) (*Element, error) {
	var root Element
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse xml: %w", err)
	}
	return &root, nil
}

// Value returns the element's character data with surrounding whitespace
// removed.
func (e *Element) Value() string {
	return strings.TrimSpace(e.Text)
}

// Find returns the first descendant element named tag, depth first in
// document order, or nil if there is none.
func (e *Element) Find(tag string) *Element {
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Local == tag {
			return c
		}
		if found := c.Find(tag); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant element named tag in document order.
func (e *Element) FindAll(tag string) []*Element {
	var out []*Element
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Local == tag {
			out = append(out, c)
		}
		out = append(out, c.FindAll(tag)...)
	}
	return out
}

// ChildrenNamed returns the direct children named tag.
func (e *Element) ChildrenNamed(tag string) []*Element {
	var out []*Element
	for i := range e.Children {
		if e.Children[i].XMLName.Local == tag {
			out = append(out, &e.Children[i])
		}
	}
	return out
}

// MissingFieldError reports a mapped tag with no matching child element.
// It propagates rather than defaulting the field: downstream joins rely
// on complete records.
type MissingFieldError struct {
	Tag string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: no child element %q", e.Tag)
}

// Setter converts an element's text and assigns it to a record field.
type Setter func(text string) error

// Bind populates a record from el by locating, for every tag in fields,
// the matching element and applying its setter to the trimmed text.
func Bind(el *Element, fields map[string]Setter) error {
	for tag, set := range fields {
		child := el.Find(tag)
		if child == nil {
			return &MissingFieldError{Tag: tag}
		}
		if err := set(child.Value()); err != nil {
			return fmt.Errorf("field %q: %w", tag, err)
		}
	}
	return nil
}

// Int converts the text as a base-10 integer.
func Int(dst *int) Setter {
	return func(text string) error {
		n, err := strconv.Atoi(text)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

// Text assigns the text as is.
func Text(dst *string) Setter {
	return func(text string) error {
		*dst = text
		return nil
	}
}

// Float converts the text as a floating-point number.
func Float(dst *float64) Setter {
	return func(text string) error {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

// Bool converts "true"/"false" text, case insensitively.
func Bool(dst *bool) Setter {
	return func(text string) error {
		switch strings.ToLower(text) {
		case "true":
			*dst = true
		case "false":
			*dst = false
		default:
			return fmt.Errorf("invalid boolean text %q", text)
		}
		return nil
	}
}

// Timestamp converts text of the form 2006-01-02T15:04:05Z.
func Timestamp(dst *time.Time) Setter {
	return func(text string) error {
		t, err := time.Parse(TimestampLayout, text)
		if err != nil {
			return err
		}
		*dst = t
		return nil
	}
}

// Datestamp converts date-only text of the form 2006-01-02.
func Datestamp(dst *time.Time) Setter {
	return func(text string) error {
		t, err := time.Parse(DatestampLayout, text)
		if err != nil {
			return err
		}
		*dst = t
		return nil
	}
}
