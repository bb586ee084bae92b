package policy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	platformstrings "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/strings"
)

// document is the on-disk layout:
//
//	policies:
//	  HIGH_DTI_RATIO:
//	    - document: Retail Credit Policy v3.2
//	      section: "4.1.2"
//	      summary: Debt-to-income ratio ...
type document struct {
	Policies map[string][]Reference `yaml:"policies"`
}

// LoadFile reads and validates a YAML policy table.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy table: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML policy table. Every reference needs a document and a
// section; codes are trimmed and must be non-empty.
func Parse(data []byte) (Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse policy table: %w", err)
	}
	if len(doc.Policies) == 0 {
		return nil, fmt.Errorf("policy table has no entries")
	}

	table := make(Table, len(doc.Policies))
	for code, refs := range doc.Policies {
		code = platformstrings.NormalizeCode(code)
		if code == "" {
			return nil, fmt.Errorf("policy table has an empty reason code")
		}
		for i, ref := range refs {
			if strings.TrimSpace(ref.Document) == "" || strings.TrimSpace(ref.Section) == "" {
				return nil, fmt.Errorf("policy %s reference %d: document and section are required", code, i)
			}
		}
		table[code] = append(table[code], refs...)
	}
	return table, nil
}
