package policy

import (
	"fmt"
	"strings"
)

// Resource paths are hierarchical, slash-separated and may end in a compound
// "field.format" (or "field:format") segment. Patterns support three kinds of
// wildcard:
//
//   - "*" as a whole segment matches exactly one path segment
//   - "*" as the final segment matches any suffix of segments (including none)
//   - "*" on either side of a compound segment matches that side only,
//     e.g. "*.masked" matches any field rendered in the masked format
//
// Compile parses a pattern once into a tagged segment list; adding a new
// resource shape means adding a segment kind here, not touching Evaluate.

type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentWildcard
	segmentSuffix
	segmentCompound
)

type segment struct {
	kind    segmentKind
	literal string

	// compound parts; either may be "*"
	field  string
	format string
}

// Pattern is a compiled resource path pattern.
type Pattern struct {
	raw      string
	segments []segment
}

// Compile parses a resource pattern. Patterns must be "*" or begin with "/".
func Compile(pattern string) (Pattern, error) {
	if pattern == "*" {
		return Pattern{raw: pattern, segments: []segment{{kind: segmentSuffix}}}, nil
	}
	if !strings.HasPrefix(pattern, "/") {
		return Pattern{}, fmt.Errorf("resource pattern %q must start with a slash", pattern)
	}

	parts := strings.Split(strings.TrimPrefix(pattern, "/"), "/")
	segments := make([]segment, 0, len(parts))
	for i, part := range parts {
		last := i == len(parts)-1
		switch {
		case part == "":
			// trailing slash or empty segment
			if !last {
				return Pattern{}, fmt.Errorf("resource pattern %q has an empty segment", pattern)
			}
		case part == "*":
			if last {
				segments = append(segments, segment{kind: segmentSuffix})
			} else {
				segments = append(segments, segment{kind: segmentWildcard})
			}
		case last && strings.ContainsAny(part, ".:"):
			field, format, err := splitCompound(part)
			if err != nil {
				return Pattern{}, fmt.Errorf("resource pattern %q: %w", pattern, err)
			}
			segments = append(segments, segment{kind: segmentCompound, field: field, format: format})
		case strings.Contains(part, "*"):
			return Pattern{}, fmt.Errorf("resource pattern %q embeds a wildcard in segment %q", pattern, part)
		default:
			segments = append(segments, segment{kind: segmentLiteral, literal: part})
		}
	}

	return Pattern{raw: pattern, segments: segments}, nil
}

func splitCompound(part string) (field, format string, err error) {
	sep := strings.LastIndexAny(part, ".:")
	if sep < 0 {
		return "", "", fmt.Errorf("segment %q is not compound", part)
	}
	field, format = part[:sep], part[sep+1:]
	if field == "" || format == "" {
		return "", "", fmt.Errorf("compound segment %q needs both a field and a format", part)
	}
	if strings.ContainsAny(field+format, "/") {
		return "", "", fmt.Errorf("compound segment %q contains a slash", part)
	}
	return field, format, nil
}

// Matches reports whether a concrete resource path satisfies the pattern.
// A malformed path never matches.
func (p Pattern) Matches(path string) bool {
	if !strings.HasPrefix(path, "/") {
		return false
	}
	pathSegments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(pathSegments) == 1 && pathSegments[0] == "" {
		pathSegments = nil
	}

	i := 0
	for _, seg := range p.segments {
		if seg.kind == segmentSuffix {
			// consumes the rest of the path, however long
			return true
		}
		if i >= len(pathSegments) {
			return false
		}
		part := pathSegments[i]
		switch seg.kind {
		case segmentLiteral:
			if part != seg.literal {
				return false
			}
		case segmentWildcard:
			// any single segment
		case segmentCompound:
			field, format, err := splitCompound(part)
			if err != nil {
				return false
			}
			if seg.field != "*" && seg.field != field {
				return false
			}
			if seg.format != "*" && seg.format != format {
				return false
			}
		}
		i++
	}

	return i == len(pathSegments)
}

// String returns the source pattern.
func (p Pattern) String() string {
	return p.raw
}
