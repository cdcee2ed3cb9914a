package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

// dayNodePattern matches Tana calendar day nodes ("2024-02-01 - Thursday").
// A breadcrumb that reaches a day node through structural containers marks
// a top-level note for that day.
var dayNodePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} - \w+$`)

// HierarchyFilter walks the note forest and decides which nodes are
// taggable targets. It is a pure function of the snapshot: running it
// twice over an unchanged forest yields the same target sequence.
type HierarchyFilter struct {
	structural map[string]struct{}
}

// NewHierarchyFilter creates a filter that treats the given note titles as
// transparent structural containers.
func NewHierarchyFilter(containers []string) *HierarchyFilter {
	m := make(map[string]struct{}, len(containers))
	for _, c := range containers {
		m[cleanTitle(c)] = struct{}{}
	}
	return &HierarchyFilter{structural: m}
}

// Targets returns the taggable targets in the snapshot, in deterministic
// order, together with any structural errors. Each error covers one
// malformed subtree; the rest of the forest is still processed.
func (f *HierarchyFilter) Targets(notes []domain.Note) ([]domain.Note, []error) {
	if len(notes) == 0 {
		return nil, nil
	}

	byID := make(map[string]*domain.Note, len(notes))
	children := make(map[string][]*domain.Note, len(notes))
	for i := range notes {
		byID[notes[i].ID] = &notes[i]
	}

	// Forest construction. A note whose parent is outside the snapshot is
	// a root of its sync window.
	var roots []*domain.Note
	for i := range notes {
		n := &notes[i]
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok {
				children[parent.ID] = append(children[parent.ID], n)
				continue
			}
		}
		roots = append(roots, n)
	}

	errs := f.cycleErrors(notes, byID, children, roots)

	var targets []domain.Note
	for _, root := range roots {
		if !f.rootEligible(root) {
			continue
		}
		targets = append(targets, f.walk(root, children)...)
	}
	return targets, errs
}

// cycleErrors reports parent-link cycles. A node trapped in a cycle is
// neither a root nor reachable from one, so anything the forest walk
// cannot reach belongs to exactly one cycle component.
func (f *HierarchyFilter) cycleErrors(
	notes []domain.Note,
	byID map[string]*domain.Note,
	children map[string][]*domain.Note,
	roots []*domain.Note,
) []error {
	reached := make(map[string]bool, len(notes))
	stack := append([]*domain.Note(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[n.ID] {
			continue
		}
		reached[n.ID] = true
		stack = append(stack, children[n.ID]...)
	}

	var errs []error
	reported := make(map[string]bool)
	for i := range notes {
		n := &notes[i]
		if reached[n.ID] {
			continue
		}
		anchor := cycleAnchor(n, byID)
		if reported[anchor.ID] {
			continue
		}
		reported[anchor.ID] = true
		errs = append(errs, fmt.Errorf("%w: cycle through note %s (%q)",
			domain.ErrMalformedHierarchy, anchor.ID, anchor.Title))
	}
	return errs
}

// cycleAnchor follows parent links from an unreachable node until the
// chain repeats, then returns the cycle member with the smallest ID so
// every node hanging off the same cycle names the same note.
func cycleAnchor(n *domain.Note, byID map[string]*domain.Note) *domain.Note {
	seen := make(map[string]bool)
	cur := n
	for !seen[cur.ID] {
		seen[cur.ID] = true
		cur = byID[*cur.ParentID]
	}
	anchor := cur
	for m := byID[*cur.ParentID]; m.ID != cur.ID; m = byID[*m.ParentID] {
		if m.ID < anchor.ID {
			anchor = m
		}
	}
	return anchor
}

// walk performs the eligibility descent from one node. The forest under
// the roots is acyclic, so the descent terminates.
func (f *HierarchyFilter) walk(n *domain.Note, children map[string][]*domain.Note) []domain.Note {
	// Already-classified subtrees are pruned whole: sub-items of a tagged
	// task must not receive independent suggestions.
	if n.HasTag {
		return nil
	}

	if f.isStructural(n) || !n.HasText() {
		// Structural containers (and blank scaffolding nodes) are
		// invisible for eligibility: descend to find the first real
		// descendants, each emitted independently.
		var out []domain.Note
		for _, child := range children[n.ID] {
			out = append(out, f.walk(child, children)...)
		}
		return out
	}

	// A real untagged note with text is the taggable target. Its children
	// are its content, not independent targets.
	return []domain.Note{*n}
}

// rootEligible applies the breadcrumb guard to snapshot roots, whose
// ancestors are not part of the snapshot. Walking the breadcrumb bottom-up:
// reaching a calendar day node through structural containers marks a
// top-level note; hitting any other ancestor first means the root is a
// sub-item of a note outside the snapshot and stays excluded.
func (f *HierarchyFilter) rootEligible(n *domain.Note) bool {
	for i := len(n.Breadcrumb) - 1; i >= 0; i-- {
		title := cleanTitle(n.Breadcrumb[i])
		if dayNodePattern.MatchString(title) {
			return true
		}
		if _, ok := f.structural[title]; ok {
			continue
		}
		return false
	}
	// No ancestors at all: a true root.
	return true
}

func (f *HierarchyFilter) isStructural(n *domain.Note) bool {
	if n.Structural {
		return true
	}
	_, ok := f.structural[cleanTitle(n.Title)]
	return ok
}

// cleanTitle strips inline formatting the graph API leaves in titles.
func cleanTitle(s string) string {
	s = strings.ReplaceAll(s, "<u>", "")
	s = strings.ReplaceAll(s, "</u>", "")
	return strings.TrimSpace(s)
}
