package sales

// DefaultFatContentAliases maps the inconsistent labels found in the raw
// export to their canonical form. Matching is exact and case-sensitive.
var DefaultFatContentAliases = map[string]string{
	"LF":      LowFat,
	"low fat": LowFat,
	"reg":     Regular,
}

// Normalizer rewrites item_fat_content labels
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer builds a normalizer from an alias table. A nil or empty
// table selects DefaultFatContentAliases. Alias chains are resolved up front
// so a single pass always reaches a fixed point; entries that lead into a
// cycle are dropped and pass through unchanged.
func NewNormalizer(aliases map[string]string) *Normalizer {
	if len(aliases) == 0 {
		aliases = DefaultFatContentAliases
	}

	resolved := make(map[string]string, len(aliases))
	for from := range aliases {
		seen := map[string]bool{from: true}
		to := aliases[from]
		cyclic := false
		for {
			next, ok := aliases[to]
			if !ok {
				break
			}
			if seen[to] {
				cyclic = true
				break
			}
			seen[to] = true
			to = next
		}
		if cyclic || to == from {
			continue
		}
		resolved[from] = to
	}

	return &Normalizer{aliases: resolved}
}

// Apply returns the canonical label for one raw value
func (n *Normalizer) Apply(value string) string {
	if canonical, ok := n.aliases[value]; ok {
		return canonical
	}
	return value
}

// Aliases returns a copy of the resolved alias table
func (n *Normalizer) Aliases() map[string]string {
	out := make(map[string]string, len(n.aliases))
	for k, v := range n.aliases {
		out[k] = v
	}
	return out
}

// Normalize returns a normalized copy of records. The input is not modified.
func (n *Normalizer) Normalize(records []Record) Dataset {
	out := make([]Record, len(records))
	for i, r := range records {
		r.ItemFatContent = n.Apply(r.ItemFatContent)
		out[i] = r
	}
	return Dataset{records: out}
}

// Normalize applies DefaultFatContentAliases
func Normalize(records []Record) Dataset {
	return NewNormalizer(nil).Normalize(records)
}

// Dataset is a normalized, read-only set of records. It can only be obtained
// from a Normalizer, so every view runs on canonical fat-content labels.
type Dataset struct {
	records []Record
}

// Len returns the number of records
func (d Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of the normalized records
func (d Dataset) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}
