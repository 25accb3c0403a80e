package scheduler

import (
	"fmt"

	"github.com/vkbuild/ubuild/internal/config"
)

// TopologicalOrder orders projects so every project appears only after
// every project it names in Dependencies, Kahn's algorithm over the
// dependency graph. It errors on a dependency naming an unconfigured
// project or on a cycle, either of which would otherwise deadlock the
// sequential build loop in cmd/ubuild.
func TopologicalOrder(projects []*config.ProjectConfig) ([]*config.ProjectConfig, error) {
	byName := make(map[string]*config.ProjectConfig, len(projects))
	indegree := make(map[string]int, len(projects))
	dependents := make(map[string][]string, len(projects))

	for _, p := range projects {
		byName[p.Name] = p
		indegree[p.Name] = 0
	}
	for _, p := range projects {
		for _, dep := range p.Dependencies {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("scheduler: project %s depends on unconfigured project %q", p.Name, dep)
			}
			indegree[p.Name]++
			dependents[dep] = append(dependents[dep], p.Name)
		}
	}

	queue := make([]string, 0, len(projects))
	for _, p := range projects {
		if indegree[p.Name] == 0 {
			queue = append(queue, p.Name)
		}
	}

	order := make([]*config.ProjectConfig, 0, len(projects))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, byName[name])
		for _, next := range dependents[name] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(projects) {
		return nil, fmt.Errorf("scheduler: project dependency graph has a cycle")
	}
	return order, nil
}
