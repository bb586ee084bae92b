package explain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
)

// Contribution is one feature's signed attribution.
type Contribution struct {
	Feature features.Name
	Value   float64
}

// Contributions keeps attribution order. It encodes as a JSON object whose
// keys appear in that order, and decoding preserves the document order.
type Contributions []Contribution

// Get returns the contribution for name.
func (c Contributions) Get(name features.Name) (float64, bool) {
	for _, item := range c {
		if item.Feature == name {
			return item.Value, true
		}
	}
	return 0, false
}

func (c Contributions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(item.Feature))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(item.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Contributions) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("feature_contributions: expected object, got %v", tok)
	}

	out := Contributions{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("feature_contributions: expected key, got %v", keyTok)
		}
		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("feature_contributions.%s: %w", key, err)
		}
		out = append(out, Contribution{Feature: features.Name(key), Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}
