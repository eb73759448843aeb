package service

import (
	"sort"

	"github.com/noah-isme/campus-api/internal/models"
)

// PrerequisiteGraph indexes prerequisite edges by subject and kind. It is
// immutable once built and safe for concurrent readers.
type PrerequisiteGraph struct {
	edges map[string]map[models.PrerequisiteKind][]models.PrerequisiteEdge
}

// NewPrerequisiteGraph builds a graph from edge rows. Edges keep their
// declared position order within a subject and kind.
func NewPrerequisiteGraph(edges []models.PrerequisiteEdge) *PrerequisiteGraph {
	g := &PrerequisiteGraph{edges: make(map[string]map[models.PrerequisiteKind][]models.PrerequisiteEdge)}
	for _, edge := range edges {
		byKind, ok := g.edges[edge.SubjectID]
		if !ok {
			byKind = make(map[models.PrerequisiteKind][]models.PrerequisiteEdge)
			g.edges[edge.SubjectID] = byKind
		}
		byKind[edge.Kind] = append(byKind[edge.Kind], edge)
	}
	for _, byKind := range g.edges {
		for kind := range byKind {
			list := byKind[kind]
			sort.SliceStable(list, func(i, j int) bool { return list[i].Position < list[j].Position })
		}
	}
	return g
}

// EdgesFor returns the edges of kind that apply to a student of studyPlanID.
// When the plan declares its own edges for the subject they replace the base
// edges; otherwise only base edges (no plan) apply.
func (g *PrerequisiteGraph) EdgesFor(subjectID string, kind models.PrerequisiteKind, studyPlanID *string) []models.PrerequisiteEdge {
	all := g.edges[subjectID][kind]
	if len(all) == 0 {
		return nil
	}
	var base, override []models.PrerequisiteEdge
	for _, edge := range all {
		switch {
		case edge.StudyPlanID == nil:
			base = append(base, edge)
		case studyPlanID != nil && *edge.StudyPlanID == *studyPlanID:
			override = append(override, edge)
		}
	}
	if len(override) > 0 {
		return override
	}
	return base
}

// RequiredSubjectIDs lists every subject referenced by edges.
func RequiredSubjectIDs(edges []models.PrerequisiteEdge) []string {
	seen := make(map[string]struct{}, len(edges))
	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		if _, ok := seen[edge.RequiredSubjectID]; ok {
			continue
		}
		seen[edge.RequiredSubjectID] = struct{}{}
		ids = append(ids, edge.RequiredSubjectID)
	}
	return ids
}

// WouldCycle reports whether adding subjectID -> requiredID closes a cycle,
// i.e. subjectID is already reachable from requiredID. Plan scoping is ignored
// so no combination of plan edges can loop.
func (g *PrerequisiteGraph) WouldCycle(subjectID, requiredID string, kind models.PrerequisiteKind) bool {
	if subjectID == requiredID {
		return true
	}
	visited := map[string]bool{}
	stack := []string{requiredID}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == subjectID {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, edge := range g.edges[current][kind] {
			if !visited[edge.RequiredSubjectID] {
				stack = append(stack, edge.RequiredSubjectID)
			}
		}
	}
	return false
}

// satisfiesPrerequisite applies the standing rule of each kind: coursework
// needs the requirement passed or in progress, a final needs it passed.
func satisfiesPrerequisite(kind models.PrerequisiteKind, status models.EnrollmentStatus) bool {
	if status == models.EnrollmentStatusPassed {
		return true
	}
	return kind == models.PrerequisiteEnroll && status == models.EnrollmentStatusInProgress
}

// EvaluatePrerequisites checks edges against a standing snapshot. Missing
// entries follow edge order; subjects absent from names are reported as
// unknown references.
func EvaluatePrerequisites(kind models.PrerequisiteKind, edges []models.PrerequisiteEdge, standing models.Standing, names map[string]models.Subject) models.PrerequisiteResult {
	result := models.PrerequisiteResult{Satisfied: true, Missing: []models.SubjectRef{}}
	for _, edge := range edges {
		if satisfiesPrerequisite(kind, standing[edge.RequiredSubjectID]) {
			continue
		}
		ref := models.SubjectRef{ID: edge.RequiredSubjectID, RequiredLevel: edge.RequiredLevel}
		if subject, ok := names[edge.RequiredSubjectID]; ok {
			ref.Name = subject.Name
		} else {
			ref.Name = models.UnknownSubjectName
			ref.Unknown = true
		}
		result.Missing = append(result.Missing, ref)
	}
	result.Satisfied = len(result.Missing) == 0
	return result
}
