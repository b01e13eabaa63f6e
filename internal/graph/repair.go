package graph

import (
	"skillsweb/cardgraph/internal/rules"
	"skillsweb/cardgraph/internal/store"
)

// RepairPlan is what the repairer should make true of the snapshots.
type RepairPlan struct {
	Hubs        []rules.HubSpec
	Attachments []rules.Attachment
	TrailSeeds  []rules.SeedUpdate
}

// PlanFromRules builds a repair plan from the rules' hub, attachment, and trail
// seed sections.
func PlanFromRules(r *rules.Rules) RepairPlan {
	return RepairPlan{Hubs: r.Hubs, Attachments: r.Attachments, TrailSeeds: r.TrailSeeds}
}

// SeedAdded records a seed appended to a trail.
type SeedAdded struct {
	Trail string `json:"trail"`
	Seed  string `json:"seed"`
}

// RepairResult describes what a repair changed. The Changed flags say which
// snapshots must be written; a no-op repair leaves all three false.
type RepairResult struct {
	CreatedHubs   []string     `json:"created_hubs"`
	AddedEdges    []store.Pair `json:"added_edges"`
	AddedSeeds    []SeedAdded  `json:"added_seeds"`
	Skipped       []*Defect    `json:"skipped"`
	MissingTrails []string     `json:"missing_trails"`

	CardsChanged         bool `json:"cards_changed"`
	RelationshipsChanged bool `json:"relationships_changed"`
	TrailsChanged        bool `json:"trails_changed"`
}

// Changed reports whether any snapshot changed.
func (r *RepairResult) Changed() bool {
	return r.CardsChanged || r.RelationshipsChanged || r.TrailsChanged
}

// Repair applies the plan to the in-memory snapshots. Each step adds only what
// is absent, so running it again on its own output changes nothing:
// hubs are created only when their id is unused, a contains edge is added
// only when its (parent, child) pair is not already present, and seeds are
// appended only when missing. Pairs and seeds naming a card that neither
// exists nor is a planned hub are skipped and reported. trails may be nil, in which case seed
// updates are reported as missing trails.
func Repair(cards *store.CardSet, rels *store.RelationshipSet, trails *store.TrailConfig, plan RepairPlan) *RepairResult {
	result := &RepairResult{}

	for _, hub := range plan.Hubs {
		if cards.Has(hub.ID) {
			continue
		}
		cards.Add(hubCard(hub))
		result.CreatedHubs = append(result.CreatedHubs, hub.ID)
		result.CardsChanged = true
	}

	existing := rels.ContainsPairs()
	link := func(parent, child string) {
		for _, id := range []string{parent, child} {
			if !cards.Has(id) {
				result.Skipped = append(result.Skipped, &Defect{
					Category: DefectUnknownCard, Subject: id, Record: -1,
					Detail: "in " + parent + " -> " + child, Err: ErrUnknownCard,
				})
				return
			}
		}
		p := store.Pair{Parent: parent, Child: child}
		if existing[p] {
			return
		}
		existing[p] = true
		rels.Add(store.NewContains(parent, child))
		result.AddedEdges = append(result.AddedEdges, p)
		result.RelationshipsChanged = true
	}
	for _, hub := range plan.Hubs {
		for _, child := range hub.Children {
			link(hub.ID, child)
		}
	}
	for _, a := range plan.Attachments {
		for _, child := range a.Children {
			link(a.Parent, child)
		}
	}

	for _, update := range plan.TrailSeeds {
		var trail *store.Trail
		if trails != nil {
			trail = trails.Find(update.Trail)
		}
		if trail == nil {
			result.MissingTrails = append(result.MissingTrails, update.Trail)
			continue
		}
		for _, seed := range update.Seeds {
			if !cards.Has(seed) {
				result.Skipped = append(result.Skipped, &Defect{
					Category: DefectUnknownCard, Subject: seed, Record: -1,
					Detail: "seed of trail " + update.Trail, Err: ErrUnknownCard,
				})
				continue
			}
			if trail.AddSeed(seed) {
				result.AddedSeeds = append(result.AddedSeeds, SeedAdded{Trail: update.Trail, Seed: seed})
				result.TrailsChanged = true
			}
		}
	}
	return result
}

func hubCard(spec rules.HubSpec) *store.Card {
	c := store.NewCard(spec.ID, spec.Title, spec.Type, spec.Description)
	for _, name := range spec.FieldNames() {
		// rules.Validate rejects modelled names, the only SetField error.
		_ = c.SetField(name, spec.Fields[name])
	}
	return c
}
