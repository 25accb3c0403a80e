package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkbuild/ubuild/internal/config"
)

func TestTopologicalOrderPutsDependenciesFirst(t *testing.T) {
	projects := []*config.ProjectConfig{
		{Name: "app", Dependencies: []string{"libnet", "libcore"}},
		{Name: "libnet", Dependencies: []string{"libcore"}},
		{Name: "libcore"},
	}

	order, err := TopologicalOrder(projects)
	require.NoError(t, err)
	require.Len(t, order, 3)

	pos := make(map[string]int, 3)
	for i, p := range order {
		pos[p.Name] = i
	}
	assert.Less(t, pos["libcore"], pos["libnet"])
	assert.Less(t, pos["libnet"], pos["app"])
}

func TestTopologicalOrderRejectsUnknownDependency(t *testing.T) {
	projects := []*config.ProjectConfig{
		{Name: "app", Dependencies: []string{"ghost"}},
	}
	_, err := TopologicalOrder(projects)
	assert.Error(t, err)
}

func TestTopologicalOrderRejectsCycle(t *testing.T) {
	projects := []*config.ProjectConfig{
		{Name: "a", Dependencies: []string{"b"}},
		{Name: "b", Dependencies: []string{"a"}},
	}
	_, err := TopologicalOrder(projects)
	assert.Error(t, err)
}
