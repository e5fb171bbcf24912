// Package assertions is the query surface over stored assertion
// attachments: polarity and scope filters, marker-pair diffs, and the
// conflict flag raised when one canonical concept carries contradictory
// polarities across markers.
package assertions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	materialrepos "github.com/yungbote/neurobridge-backend/internal/data/repos/materials"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// Store reads assertions for a tenant and answers the diff/filter queries.
type Store struct {
	log  *logger.Logger
	db   *gorm.DB
	repo materialrepos.AssertionRepo
}

func NewStore(log *logger.Logger, db *gorm.DB, repo materialrepos.AssertionRepo) (*Store, error) {
	if log == nil {
		return nil, fmt.Errorf("assertions: logger required")
	}
	if db == nil || repo == nil {
		return nil, fmt.Errorf("assertions: db and repo required")
	}
	return &Store{log: log.With("component", "AssertionStore"), db: db, repo: repo}, nil
}

// ConceptState is one concept's assertion under a given marker scope.
type ConceptState struct {
	ConceptID  uuid.UUID
	Polarity   types.Polarity
	Scope      types.AssertionScope
	Confidence float64
	Evidence   []string
}

// MarkerDiff is the result of diffing two markers: which concepts appear
// only under A, only under B, under both unchanged, and under both with
// flipped polarity.
type MarkerDiff struct {
	OnlyInA []ConceptState
	OnlyInB []ConceptState
	InBoth  []ConceptState
	Changed []PolarityChange
}

// PolarityChange is one concept whose stance differs between two markers.
type PolarityChange struct {
	ConceptID uuid.UUID
	PolarityA types.Polarity
	PolarityB types.Polarity
}

// DiffByMarkers compares the concept assertions under marker A against
// marker B for a tenant.
func (s *Store) DiffByMarkers(ctx context.Context, tenantID uuid.UUID, markerA, markerB string) (MarkerDiff, error) {
	rows, err := s.repo.GetByTenant(ctx, s.db, tenantID)
	if err != nil {
		return MarkerDiff{}, fmt.Errorf("assertions: read tenant: %w", err)
	}
	return DiffByMarkers(rows, markerA, markerB), nil
}

// DiffByMarkers is the pure diff over an assertion snapshot.
func DiffByMarkers(rows []*types.Assertion, markerA, markerB string) MarkerDiff {
	statesA := statesUnderMarker(rows, markerA)
	statesB := statesUnderMarker(rows, markerB)

	var diff MarkerDiff
	for id, a := range statesA {
		b, inB := statesB[id]
		switch {
		case !inB:
			diff.OnlyInA = append(diff.OnlyInA, a)
		case a.Polarity != b.Polarity:
			diff.Changed = append(diff.Changed, PolarityChange{ConceptID: id, PolarityA: a.Polarity, PolarityB: b.Polarity})
		default:
			diff.InBoth = append(diff.InBoth, a)
		}
	}
	for id, b := range statesB {
		if _, inA := statesA[id]; !inA {
			diff.OnlyInB = append(diff.OnlyInB, b)
		}
	}
	sortStates(diff.OnlyInA)
	sortStates(diff.OnlyInB)
	sortStates(diff.InBoth)
	sort.Slice(diff.Changed, func(i, j int) bool {
		return diff.Changed[i].ConceptID.String() < diff.Changed[j].ConceptID.String()
	})
	return diff
}

// DiffByDocuments compares the concept assertions of two documents.
func (s *Store) DiffByDocuments(ctx context.Context, fileA, fileB uuid.UUID) (MarkerDiff, error) {
	rowsA, err := s.repo.GetByFileID(ctx, s.db, fileA)
	if err != nil {
		return MarkerDiff{}, fmt.Errorf("assertions: read file A: %w", err)
	}
	rowsB, err := s.repo.GetByFileID(ctx, s.db, fileB)
	if err != nil {
		return MarkerDiff{}, fmt.Errorf("assertions: read file B: %w", err)
	}

	statesA := latestStates(rowsA)
	statesB := latestStates(rowsB)
	var diff MarkerDiff
	for id, a := range statesA {
		b, inB := statesB[id]
		switch {
		case !inB:
			diff.OnlyInA = append(diff.OnlyInA, a)
		case a.Polarity != b.Polarity:
			diff.Changed = append(diff.Changed, PolarityChange{ConceptID: id, PolarityA: a.Polarity, PolarityB: b.Polarity})
		default:
			diff.InBoth = append(diff.InBoth, a)
		}
	}
	for id, b := range statesB {
		if _, inA := statesA[id]; !inA {
			diff.OnlyInB = append(diff.OnlyInB, b)
		}
	}
	sortStates(diff.OnlyInA)
	sortStates(diff.OnlyInB)
	sortStates(diff.InBoth)
	return diff, nil
}

// ByPolarity lists concepts asserted with the given polarity.
func (s *Store) ByPolarity(ctx context.Context, tenantID uuid.UUID, polarity types.Polarity) ([]ConceptState, error) {
	rows, err := s.repo.GetByTenant(ctx, s.db, tenantID)
	if err != nil {
		return nil, fmt.Errorf("assertions: read tenant: %w", err)
	}
	return FilterByPolarity(rows, polarity), nil
}

// FilterByPolarity is the pure polarity filter.
func FilterByPolarity(rows []*types.Assertion, polarity types.Polarity) []ConceptState {
	var out []ConceptState
	for _, r := range rows {
		if r.CanonicalConceptID == nil || r.Polarity != polarity {
			continue
		}
		out = append(out, stateOf(r))
	}
	sortStates(out)
	return out
}

// ByScope lists concepts asserted with scope=constrained under the given
// marker.
func (s *Store) ByScope(ctx context.Context, tenantID uuid.UUID, marker string) ([]ConceptState, error) {
	rows, err := s.repo.GetByTenant(ctx, s.db, tenantID)
	if err != nil {
		return nil, fmt.Errorf("assertions: read tenant: %w", err)
	}
	return FilterConstrainedByMarker(rows, marker), nil
}

// FilterConstrainedByMarker is the pure scope filter.
func FilterConstrainedByMarker(rows []*types.Assertion, marker string) []ConceptState {
	var out []ConceptState
	for _, r := range rows {
		if r.CanonicalConceptID == nil || r.Scope != types.ScopeConstrained {
			continue
		}
		if !hasMarker(r, marker) {
			continue
		}
		out = append(out, stateOf(r))
	}
	sortStates(out)
	return out
}

// Conflicts finds canonical concepts carrying contradictory polarities
// (affirmed vs negated) across markers.
func Conflicts(rows []*types.Assertion) []uuid.UUID {
	type seen struct{ affirmed, negated bool }
	byConcept := map[uuid.UUID]*seen{}
	for _, r := range rows {
		if r.CanonicalConceptID == nil {
			continue
		}
		st, ok := byConcept[*r.CanonicalConceptID]
		if !ok {
			st = &seen{}
			byConcept[*r.CanonicalConceptID] = st
		}
		switch r.Polarity {
		case types.PolarityAffirmed:
			st.affirmed = true
		case types.PolarityNegated:
			st.negated = true
		}
	}
	var out []uuid.UUID
	for id, st := range byConcept {
		if st.affirmed && st.negated {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func statesUnderMarker(rows []*types.Assertion, marker string) map[uuid.UUID]ConceptState {
	out := map[uuid.UUID]ConceptState{}
	for _, r := range rows {
		if r.CanonicalConceptID == nil || !hasMarker(r, marker) {
			continue
		}
		out[*r.CanonicalConceptID] = stateOf(r)
	}
	return out
}

func latestStates(rows []*types.Assertion) map[uuid.UUID]ConceptState {
	out := map[uuid.UUID]ConceptState{}
	for _, r := range rows {
		if r.CanonicalConceptID == nil {
			continue
		}
		out[*r.CanonicalConceptID] = stateOf(r)
	}
	return out
}

func stateOf(r *types.Assertion) ConceptState {
	var evidence []string
	if len(r.Evidence) > 0 {
		_ = json.Unmarshal(r.Evidence, &evidence)
	}
	return ConceptState{
		ConceptID:  *r.CanonicalConceptID,
		Polarity:   r.Polarity,
		Scope:      r.Scope,
		Confidence: r.Confidence,
		Evidence:   evidence,
	}
}

func hasMarker(r *types.Assertion, marker string) bool {
	var markers []string
	if len(r.Markers) > 0 {
		_ = json.Unmarshal(r.Markers, &markers)
	}
	for _, m := range markers {
		if m == marker {
			return true
		}
	}
	return false
}

func sortStates(states []ConceptState) {
	sort.Slice(states, func(i, j int) bool {
		return states[i].ConceptID.String() < states[j].ConceptID.String()
	})
}
