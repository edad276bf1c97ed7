package urlutil

import (
	"net/url"
	"regexp"
	"strings"
)

// Segment shape matchers for dynamic URL classification.
var (
	// numericSegment matches all-numeric path segments like "123".
	numericSegment = regexp.MustCompile(`^\d+$`)

	// uuidSegment matches UUID-v4-shaped segments (8-4-4-4-12 hex).
	uuidSegment = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	// objectIDSegment matches 24-hex-digit MongoDB ObjectId-shaped segments.
	objectIDSegment = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// DynamicClassification is the result of inspecting a URL for dynamic
// segments.
type DynamicClassification struct {
	// IsDynamic is true when at least one path segment or query parameter
	// matched a dynamic shape.
	IsDynamic bool

	// Pattern is the path template with each dynamic segment replaced by
	// its type tag (":id", ":uuid", ":objectId") in original order.
	// Empty when IsDynamic is false.
	Pattern string

	// DynamicSegments lists the original values of the matched segments
	// and parameters, in order of appearance.
	DynamicSegments []string
}

// ClassifyDynamic inspects a URL's path segments and query parameters and
// recognizes parameterized URL families.
//
// Three segment shapes count as dynamic: all-numeric, UUID-v4-shaped, and
// 24-hex ObjectId-shaped. A query parameter also counts when its key
// contains "id" (case-insensitive) and its value is numeric.
//
// The returned pattern collapses a family like /product/123, /product/456
// into the single template /product/:id, which the frontier uses to bound
// the otherwise-unbounded space of parameterized pages.
func ClassifyDynamic(rawURL string) DynamicClassification {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DynamicClassification{}
	}

	var dynamic []string
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	patternSegments := make([]string, 0, len(segments))

	for _, seg := range segments {
		if seg == "" {
			continue
		}
		switch {
		case numericSegment.MatchString(seg):
			patternSegments = append(patternSegments, ":id")
			dynamic = append(dynamic, seg)
		case uuidSegment.MatchString(seg):
			patternSegments = append(patternSegments, ":uuid")
			dynamic = append(dynamic, seg)
		case objectIDSegment.MatchString(seg):
			patternSegments = append(patternSegments, ":objectId")
			dynamic = append(dynamic, seg)
		default:
			patternSegments = append(patternSegments, seg)
		}
	}

	// Query parameters whose key contains "id" with a numeric value also
	// mark the URL as dynamic (e.g. ?product_id=42).
	for key, values := range u.Query() {
		if !strings.Contains(strings.ToLower(key), "id") {
			continue
		}
		for _, v := range values {
			if numericSegment.MatchString(v) {
				dynamic = append(dynamic, key+"="+v)
			}
		}
	}

	if len(dynamic) == 0 {
		return DynamicClassification{}
	}

	return DynamicClassification{
		IsDynamic:       true,
		Pattern:         "/" + strings.Join(patternSegments, "/"),
		DynamicSegments: dynamic,
	}
}
