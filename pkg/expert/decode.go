package expert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ErrNoJSONObject is returned when a model response contains no JSON object.
var ErrNoJSONObject = errors.New("response contains no JSON object")

// Decode strictly decodes a JSON object into out.
// Every required key must be present and non-null; types must match exactly.
func Decode(raw json.RawMessage, required []string, out any) error {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("response is not a JSON object: %w", err)
	}
	if m == nil {
		return ErrNoJSONObject
	}

	var missing []string
	for _, k := range required {
		if v, ok := m[k]; !ok || v == nil {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Squash:  true,
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// ExtractJSON pulls the outermost JSON object out of model text,
// tolerating markdown code fences and surrounding prose.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, ErrNoJSONObject
	}
	candidate := []byte(s[start : end+1])
	if !json.Valid(candidate) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrNoJSONObject)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, candidate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
