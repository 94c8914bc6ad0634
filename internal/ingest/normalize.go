package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Domain scopes a name mapping.
type Domain string

const (
	DomainMaterial   Domain = "material"
	DomainPart       Domain = "part"
	DomainLaborGroup Domain = "labor_group"
)

// Normalizer maps raw names to canonical names. It is read-only and
// returns the raw name when it knows no mapping.
type Normalizer interface {
	Normalize(domain Domain, raw string) string
}

// IdentityNormalizer returns every name unchanged.
type IdentityNormalizer struct{}

// Normalize returns raw.
func (IdentityNormalizer) Normalize(_ Domain, raw string) string { return raw }

// MappingNormalizer looks names up in a fixed table. Lookup keys are
// NFKC-normalized, case-folded and stripped of whitespace, so "Ｑ235 钢板"
// and "q235钢板" hit the same entry.
type MappingNormalizer struct {
	table map[Domain]map[string]string
}

// NewMappingNormalizer builds a normalizer from domain -> raw -> canonical.
func NewMappingNormalizer(mappings map[Domain]map[string]string) *MappingNormalizer {
	table := make(map[Domain]map[string]string, len(mappings))
	for d, m := range mappings {
		inner := make(map[string]string, len(m))
		for raw, canonical := range m {
			inner[foldKey(raw)] = canonical
		}
		table[d] = inner
	}
	return &MappingNormalizer{table: table}
}

// ParseMappings decodes a YAML mapping table:
//
//	material:
//	  Q235钢板: 钢板 Q235
//	labor_group:
//	  一班: 焊接一班
func ParseMappings(data []byte) (*MappingNormalizer, error) {
	var raw map[Domain]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode name mappings: %w", err)
	}
	for d := range raw {
		switch d {
		case DomainMaterial, DomainPart, DomainLaborGroup:
		default:
			return nil, fmt.Errorf("decode name mappings: unknown domain %q", d)
		}
	}
	return NewMappingNormalizer(raw), nil
}

// LoadMappings reads a YAML mapping table from path.
func LoadMappings(path string) (*MappingNormalizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read name mappings: %w", err)
	}
	return ParseMappings(data)
}

// Normalize returns the canonical name for raw, or raw if unmapped.
func (n *MappingNormalizer) Normalize(domain Domain, raw string) string {
	if c, ok := n.table[domain][foldKey(raw)]; ok {
		return c
	}
	return raw
}

// Len returns the number of mappings across all domains.
func (n *MappingNormalizer) Len() int {
	total := 0
	for _, m := range n.table {
		total += len(m)
	}
	return total
}
