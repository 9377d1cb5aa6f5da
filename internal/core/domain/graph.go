// Package domain contains the core domain models and business logic for the module dependency graph.
package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ResolutionNode is the scheduling state of a module that is still blocked.
type ResolutionNode struct {
	// UnresolvedRequirements holds the requirements that have not completed yet.
	// The module becomes runnable exactly when it empties.
	UnresolvedRequirements map[InternedString]struct{}
	// DependedOnBy lists the modules waiting on this one.
	DependedOnBy []InternedString
}

// Pending returns the number of requirements still outstanding.
func (n *ResolutionNode) Pending() int {
	return len(n.UnresolvedRequirements)
}

// DependencyGraph is the view of a module list used to drive one scheduler run.
// Resolve mutates it, so a graph must not be shared between runs.
type DependencyGraph struct {
	// Ready holds the modules with no requirements, in registry order.
	Ready []InternedString
	// ProvidesTo maps every module to the modules that require it.
	ProvidesTo map[InternedString][]InternedString
	// Unresolved holds a node for every module that was not ready at construction time.
	Unresolved map[InternedString]*ResolutionNode

	modules map[InternedString]Module
	order   []InternedString
}

// BuildGraph derives the ready set, the reverse edges and the unresolved index from modules
// in a single pass over the declared requirements.
// It does not look for cycles: modules on a cycle simply never become ready.
func BuildGraph(modules []Module) (*DependencyGraph, error) {
	g := &DependencyGraph{
		ProvidesTo: make(map[InternedString][]InternedString, len(modules)),
		Unresolved: make(map[InternedString]*ResolutionNode),
		modules:    make(map[InternedString]Module, len(modules)),
		order:      make([]InternedString, 0, len(modules)),
	}

	for _, m := range modules {
		if _, exists := g.modules[m.Name]; exists {
			return nil, zerr.With(zerr.Wrap(ErrModuleAlreadyExists, "duplicate workspace member"), "module", m.Name.String())
		}
		g.modules[m.Name] = m
		g.order = append(g.order, m.Name)
		g.ProvidesTo[m.Name] = []InternedString{}
	}

	for _, m := range modules {
		for _, r := range m.Requires {
			if _, ok := g.modules[r]; !ok {
				return nil, zerr.With(
					zerr.With(zerr.Wrap(ErrMissingDependency, "module requires an unknown module"), "module", m.Name.String()),
					"dependency", r.String(),
				)
			}

			node, ok := g.Unresolved[m.Name]
			if !ok {
				node = &ResolutionNode{UnresolvedRequirements: make(map[InternedString]struct{}, len(m.Requires))}
				g.Unresolved[m.Name] = node
			}
			if _, seen := node.UnresolvedRequirements[r]; seen {
				continue
			}
			node.UnresolvedRequirements[r] = struct{}{}
			g.ProvidesTo[r] = append(g.ProvidesTo[r], m.Name)
		}
	}

	for _, name := range g.order {
		if _, blocked := g.Unresolved[name]; !blocked {
			g.Ready = append(g.Ready, name)
		}
	}
	for name, node := range g.Unresolved {
		node.DependedOnBy = append([]InternedString(nil), g.ProvidesTo[name]...)
	}

	if len(g.Ready)+len(g.Unresolved) != len(modules) {
		return nil, zerr.With(
			zerr.With(zerr.Wrap(ErrInconsistentGraph, "ready and unresolved modules do not add up"), "modules", len(modules)),
			"accounted", len(g.Ready)+len(g.Unresolved),
		)
	}

	return g, nil
}

// Resolve records that name has completed. It removes name from the pending set of every
// dependent and returns the dependents whose set just became empty, in ProvidesTo order.
// Only the call that empties a set reports that dependent, so each module is released once.
func (g *DependencyGraph) Resolve(name InternedString) ([]InternedString, error) {
	var newlyReady []InternedString
	for _, dependent := range g.ProvidesTo[name] {
		node, ok := g.Unresolved[dependent]
		if !ok {
			return newlyReady, zerr.With(
				zerr.With(zerr.Wrap(ErrInconsistentGraph, "dependent has no resolution node"), "module", name.String()),
				"dependent", dependent.String(),
			)
		}
		if _, pending := node.UnresolvedRequirements[name]; !pending {
			continue
		}
		delete(node.UnresolvedRequirements, name)
		if len(node.UnresolvedRequirements) == 0 {
			newlyReady = append(newlyReady, dependent)
		}
	}
	return newlyReady, nil
}

// Stalled returns the modules that still have outstanding requirements, in registry order.
// After a run this is the set of modules that never became ready.
func (g *DependencyGraph) Stalled() []InternedString {
	var stalled []InternedString
	for _, name := range g.order {
		if node, ok := g.Unresolved[name]; ok && node.Pending() > 0 {
			stalled = append(stalled, name)
		}
	}
	return stalled
}

// Module returns the module registered under name.
func (g *DependencyGraph) Module(name InternedString) (Module, bool) {
	m, ok := g.modules[name]
	return m, ok
}

// Modules returns every module in registry order.
func (g *DependencyGraph) Modules() []Module {
	out := make([]Module, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.modules[name])
	}
	return out
}

// Len returns the number of modules in the graph.
func (g *DependencyGraph) Len() int {
	return len(g.order)
}

// FindCycle reports the first requirement cycle among modules, visiting them in order.
// Requirements naming unknown modules are ignored here; BuildGraph reports those.
func FindCycle(modules []Module) error {
	byName := make(map[InternedString]Module, len(modules))
	for _, m := range modules {
		byName[m.Name] = m
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[InternedString]int, len(modules))
	var path []InternedString

	var visit func(name InternedString) error
	visit = func(name InternedString) error {
		state[name] = visiting
		path = append(path, name)

		for _, dep := range byName[name].Requires {
			if _, known := byName[dep]; !known {
				continue
			}
			switch state[dep] {
			case visiting:
				return cycleError(path, dep)
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		state[name] = visited
		path = path[:len(path)-1]
		return nil
	}

	for _, m := range modules {
		if state[m.Name] == unvisited {
			if err := visit(m.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// cycleError builds an error carrying the cycle as "a -> b -> a".
func cycleError(path []InternedString, dep InternedString) error {
	start := 0
	for i, node := range path {
		if node == dep {
			start = i
			break
		}
	}

	names := make([]string, 0, len(path)-start+1)
	for _, node := range path[start:] {
		names = append(names, node.String())
	}
	names = append(names, dep.String())

	return zerr.With(zerr.Wrap(ErrCycleDetected, "modules require each other"), "cycle", strings.Join(names, " -> "))
}
