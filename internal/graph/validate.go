package graph

import (
	"fmt"
	"sort"
	"strings"

	"skillsweb/cardgraph/internal/store"
)

// DefaultRequiredFields are the card fields whose absence is a defect.
var DefaultRequiredFields = []string{"id", "title", "type"}

// DuplicateID is an id shared by more than one card record.
type DuplicateID struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// MissingFields lists the required fields a card record lacks.
type MissingFields struct {
	Record int      `json:"record"`
	ID     string   `json:"id,omitempty"`
	Fields []string `json:"fields"`
}

// MistypedFields lists the modelled fields of a card record whose stored
// value has the wrong JSON type.
type MistypedFields struct {
	Record int      `json:"record"`
	ID     string   `json:"id,omitempty"`
	Fields []string `json:"fields"`
}

// DuplicateEdge is a (source, target, type) triple that appears more than once.
type DuplicateEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Count  int    `json:"count"`
}

// IntegrityReport contains the integrity findings for a pair of snapshots.
type IntegrityReport struct {
	TotalCards         int              `json:"total_cards"`
	UniqueIDs          int              `json:"unique_ids"`
	TotalRelationships int              `json:"total_relationships"`
	DuplicateIDs       []DuplicateID    `json:"duplicate_ids"`
	MissingFields      []MissingFields  `json:"missing_fields"`
	MistypedFields     []MistypedFields `json:"mistyped_fields"`
	DanglingEndpoints  []string         `json:"dangling_endpoints"`
	MissingEndpoints   []int            `json:"missing_endpoints"` // relationship record indexes
	DuplicateEdges     []DuplicateEdge  `json:"duplicate_edges"`
}

// ValidateOptions adjusts what the validator treats as required.
type ValidateOptions struct {
	// RequiredFields replaces DefaultRequiredFields when non-empty.
	RequiredFields []string
}

// Validate checks id uniqueness, required fields, and relationship endpoint
// resolution. It never modifies its inputs; data problems are findings in the
// report, not errors.
func Validate(cards *store.CardSet, rels *store.RelationshipSet, opts ValidateOptions) *IntegrityReport {
	required := opts.RequiredFields
	if len(required) == 0 {
		required = DefaultRequiredFields
	}

	report := &IntegrityReport{
		TotalCards:         len(cards.Cards),
		UniqueIDs:          cards.Len(),
		TotalRelationships: len(rels.Items),
	}

	counts := make(map[string]int)
	for i, c := range cards.Cards {
		if c.ID != "" {
			counts[c.ID]++
		}
		var missing []string
		for _, f := range required {
			if fieldMissing(c, f) {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			report.MissingFields = append(report.MissingFields, MissingFields{Record: i, ID: c.ID, Fields: missing})
		}
		if len(c.Mistyped) > 0 {
			report.MistypedFields = append(report.MistypedFields, MistypedFields{
				Record: i, ID: c.ID, Fields: append([]string(nil), c.Mistyped...),
			})
		}
	}
	for id, n := range counts {
		if n > 1 {
			report.DuplicateIDs = append(report.DuplicateIDs, DuplicateID{ID: id, Count: n})
		}
	}
	sort.Slice(report.DuplicateIDs, func(i, j int) bool {
		return report.DuplicateIDs[i].ID < report.DuplicateIDs[j].ID
	})

	dangling := make(map[string]bool)
	edgeCounts := make(map[store.EdgeKey]int)
	var edgeOrder []store.EdgeKey
	for i, r := range rels.Items {
		if r.Source == "" || r.Target == "" {
			report.MissingEndpoints = append(report.MissingEndpoints, i)
		}
		for _, end := range []string{r.Source, r.Target} {
			if end != "" && !cards.Has(end) {
				dangling[end] = true
			}
		}
		k := r.Key()
		if edgeCounts[k] == 0 {
			edgeOrder = append(edgeOrder, k)
		}
		edgeCounts[k]++
	}
	for id := range dangling {
		report.DanglingEndpoints = append(report.DanglingEndpoints, id)
	}
	sort.Strings(report.DanglingEndpoints)

	for _, k := range edgeOrder {
		if edgeCounts[k] > 1 {
			report.DuplicateEdges = append(report.DuplicateEdges, DuplicateEdge{
				Source: k.Source, Target: k.Target, Type: k.Type, Count: edgeCounts[k],
			})
		}
	}
	return report
}

// fieldMissing treats an absent, null, or blank field as missing.
func fieldMissing(c *store.Card, field string) bool {
	switch field {
	case "id":
		return strings.TrimSpace(c.ID) == ""
	case "title":
		return strings.TrimSpace(c.Title) == ""
	case "type":
		return strings.TrimSpace(c.Type) == ""
	case "description":
		return strings.TrimSpace(c.Description) == ""
	case "media", "web", "video":
		return !c.Has(field)
	}
	raw, ok := c.Field(field)
	return !ok || string(raw) == "null"
}

// Clean reports whether the report has no findings.
func (r *IntegrityReport) Clean() bool {
	return len(r.DuplicateIDs) == 0 && len(r.MissingFields) == 0 && len(r.MistypedFields) == 0 &&
		len(r.DanglingEndpoints) == 0 && len(r.MissingEndpoints) == 0 &&
		len(r.DuplicateEdges) == 0
}

// Defects flattens the report into individual findings.
func (r *IntegrityReport) Defects() []*Defect {
	var out []*Defect
	for _, d := range r.DuplicateIDs {
		out = append(out, &Defect{
			Category: DefectDuplicateID, Subject: d.ID, Record: -1,
			Detail: fmt.Sprintf("x%d", d.Count), Err: ErrDuplicateID,
		})
	}
	for _, m := range r.MissingFields {
		subject := m.ID
		if subject == "" {
			subject = fmt.Sprintf("index %d", m.Record)
		}
		out = append(out, &Defect{
			Category: DefectMissingField, Subject: subject, Record: m.Record,
			Detail: "missing " + strings.Join(m.Fields, ", "), Err: ErrMissingField,
		})
	}
	for _, m := range r.MistypedFields {
		subject := m.ID
		if subject == "" {
			subject = fmt.Sprintf("index %d", m.Record)
		}
		out = append(out, &Defect{
			Category: DefectFieldType, Subject: subject, Record: m.Record,
			Detail: "wrong type for " + strings.Join(m.Fields, ", "), Err: ErrFieldType,
		})
	}
	for _, id := range r.DanglingEndpoints {
		out = append(out, &Defect{
			Category: DefectDanglingEndpoint, Subject: id, Record: -1, Err: ErrDanglingEndpoint,
		})
	}
	for _, i := range r.MissingEndpoints {
		out = append(out, &Defect{
			Category: DefectMissingEndpoint, Subject: fmt.Sprintf("relationship %d", i), Record: i,
			Err: ErrMissingEndpoint,
		})
	}
	for _, d := range r.DuplicateEdges {
		out = append(out, &Defect{
			Category: DefectDuplicateEdge, Subject: fmt.Sprintf("%s -[%s]-> %s", d.Source, d.Type, d.Target),
			Record: -1, Detail: fmt.Sprintf("x%d", d.Count), Err: ErrDuplicateEdge,
		})
	}
	return out
}
