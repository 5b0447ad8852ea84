package pipeline

import (
	"errors"
	"fmt"

	"github.com/wonny/instock/internal/contracts"
)

// Graph validation errors
var (
	ErrDuplicateStage    = errors.New("duplicate stage")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrCycle             = errors.New("dependency cycle")
	ErrNoAction          = errors.New("stage has no action")
)

// Graph is a validated stage dependency graph grouped into execution levels.
// Level N holds the stages whose longest dependency chain has length N.
type Graph struct {
	stages map[contracts.StageName]contracts.Stage
	levels [][]contracts.Stage
}

// NewGraph validates the stages and computes their levels.
// Stages keep declaration order inside a level.
func NewGraph(stages ...contracts.Stage) (*Graph, error) {
	g := &Graph{
		stages: make(map[contracts.StageName]contracts.Stage, len(stages)),
	}

	for _, s := range stages {
		if _, ok := g.stages[s.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStage, s.Name)
		}
		if s.Action == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoAction, s.Name)
		}
		g.stages[s.Name] = s
	}

	for _, s := range stages {
		for _, dep := range s.DependsOn {
			if _, ok := g.stages[dep]; !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrUnknownDependency, s.Name, dep)
			}
		}
	}

	depth := make(map[contracts.StageName]int, len(stages))
	visiting := make(map[contracts.StageName]bool, len(stages))

	var visit func(name contracts.StageName) (int, error)
	visit = func(name contracts.StageName) (int, error) {
		if d, ok := depth[name]; ok {
			return d, nil
		}
		if visiting[name] {
			return 0, fmt.Errorf("%w: at %s", ErrCycle, name)
		}
		visiting[name] = true

		d := 0
		for _, dep := range g.stages[name].DependsOn {
			depDepth, err := visit(dep)
			if err != nil {
				return 0, err
			}
			if depDepth+1 > d {
				d = depDepth + 1
			}
		}

		visiting[name] = false
		depth[name] = d
		return d, nil
	}

	maxDepth := -1
	for _, s := range stages {
		d, err := visit(s.Name)
		if err != nil {
			return nil, err
		}
		if d > maxDepth {
			maxDepth = d
		}
	}

	g.levels = make([][]contracts.Stage, maxDepth+1)
	for _, s := range stages {
		d := depth[s.Name]
		g.levels[d] = append(g.levels[d], s)
	}

	return g, nil
}

// Levels returns the execution levels in order
func (g *Graph) Levels() [][]contracts.Stage {
	return g.levels
}

// Len returns the number of stages
func (g *Graph) Len() int {
	return len(g.stages)
}

// Stage returns the stage registered under name
func (g *Graph) Stage(name contracts.StageName) (contracts.Stage, bool) {
	s, ok := g.stages[name]
	return s, ok
}
