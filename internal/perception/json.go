package perception

import (
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
)

var jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ExtractJSON returns the body of the first ```json fenced block in text,
// or the trimmed text when there is none.
func ExtractJSON(text string) string {
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}

// ParseJSON decodes model output into v. It tries a strict decode, then a
// decode with a closing brace appended, then a jsonrepair pass. When every
// attempt fails the error of the strict decode is returned.
func ParseJSON(text string, v interface{}) error {
	err := jsoniter.UnmarshalFromString(text, v)
	if err == nil {
		return nil
	}
	originalErr := err

	if err := jsoniter.UnmarshalFromString(text+"}", v); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return originalErr
	}
	if err := jsoniter.UnmarshalFromString(repaired, v); err == nil {
		return nil
	}
	return originalErr
}
