package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Question struct {
	ID             int64    `json:"id"`
	Text           string   `json:"text"`
	RubricKeywords Keywords `json:"rubric_keywords"`
	Difficulty     string   `json:"difficulty,omitempty"`
}

// Keywords accepts both the comma separated string the backend stores and a
// JSON array of strings.
type Keywords []string

func (k *Keywords) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*k = nil
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode keywords: %w", err)
		}
		*k = SplitList(s)
		return nil
	case '[':
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return fmt.Errorf("decode keywords: %w", err)
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*k = out
		return nil
	}
	return fmt.Errorf("decode keywords: unexpected token %q", b[0])
}

func (k Keywords) String() string {
	return strings.Join(k, ", ")
}

// SplitList splits a comma separated list, trimming every segment and
// dropping the empty ones.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
