package main

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Release is one version section of the changelog.
type Release struct {
	Version string
	Date    string
	Notes   string
}

// Document is a parsed changelog.
type Document struct {
	Releases []Release
	Links    map[string]string
}

// Release looks a version up, tolerating an optional "v" prefix.
func (d *Document) Release(version string) *Release {
	version = strings.TrimPrefix(version, "v")
	for i := range d.Releases {
		if strings.TrimPrefix(d.Releases[i].Version, "v") == version {
			return &d.Releases[i]
		}
	}
	return nil
}

// Parse reads a Keep a Changelog document. Each level-2 heading opens a
// release section; the section body runs until the next level-2 heading.
func Parse(source []byte) (*Document, error) {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	doc := &Document{Links: make(map[string]string)}
	for _, ref := range ctx.References() {
		doc.Links[string(ref.Label())] = string(ref.Destination())
	}

	type section struct {
		version string
		date    string
		start   int // offset where the heading begins
		bodyAt  int // offset just past the heading line
	}
	var sections []section

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 2 {
			return ast.WalkContinue, nil
		}

		version, date := splitReleaseHeading(headingText(heading, source))
		sec := section{version: version, date: date}
		if lines := heading.Lines(); lines.Len() > 0 {
			sec.start = lines.At(0).Start
			sec.bodyAt = lines.At(lines.Len() - 1).Stop
		}
		sections = append(sections, sec)
		return ast.WalkContinue, nil
	})

	for i, sec := range sections {
		end := len(source)
		if i+1 < len(sections) {
			end = sections[i+1].start
		}
		notes := ""
		if sec.bodyAt < end {
			notes = strings.TrimSpace(string(source[sec.bodyAt:end]))
		}
		doc.Releases = append(doc.Releases, Release{
			Version: sec.version,
			Date:    sec.date,
			Notes:   notes,
		})
	}

	return doc, nil
}

func headingText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(source))
		case *ast.Link:
			for lc := c.FirstChild(); lc != nil; lc = lc.NextSibling() {
				if t, ok := lc.(*ast.Text); ok {
					buf.Write(t.Segment.Value(source))
				}
			}
		}
	}
	return buf.String()
}

// splitReleaseHeading handles both "[1.2.3] - 2026-01-02" and the bare
// "1.2.3 - 2026-01-02" form.
func splitReleaseHeading(heading string) (version, date string) {
	heading = strings.TrimSpace(heading)

	if rest, ok := strings.CutPrefix(heading, "["); ok {
		if idx := strings.Index(rest, "]"); idx != -1 {
			version = rest[:idx]
			tail := strings.TrimSpace(rest[idx+1:])
			if after, ok := strings.CutPrefix(tail, "- "); ok {
				date = strings.TrimSpace(after)
			}
			return version, date
		}
	}

	if idx := strings.Index(heading, " - "); idx != -1 {
		return strings.TrimSpace(heading[:idx]), strings.TrimSpace(heading[idx+3:])
	}
	return heading, ""
}
