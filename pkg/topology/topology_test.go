package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

func step(id string, parent string) models.Step {
	s := models.Step{ID: id, Role: models.RoleAction, Kind: models.KindAction}
	if parent != "" {
		s.ParentID = &parent
	}
	return s
}

func TestBuildLinearChainOutOfOrder(t *testing.T) {
	steps := []models.Step{
		step("c", "b"),
		step("a", ""),
		step("b", "a"),
	}

	topo := Build(steps)

	assert.Equal(t, 1, topo.Root)
	assert.Equal(t, []int{1, 2, 0}, topo.Order)
	assert.Equal(t, [][]int{{1, 2, 0}}, topo.Branches)
	assert.Equal(t, 3, topo.Depth)
	assert.Empty(t, topo.Warnings)
}

func TestBuildBranches(t *testing.T) {
	steps := []models.Step{
		step("t", ""),
		step("p", "t"),
		step("x", "p"),
		step("y", "p"),
	}

	topo := Build(steps)

	assert.Equal(t, [][]int{{0, 1, 2}, {0, 1, 3}}, topo.Branches)
	assert.Equal(t, 1, topo.FanOut)
	assert.Equal(t, []int{0, 1, 2, 3}, topo.Order)
}

func TestBuildDanglingParentBecomesSecondRoot(t *testing.T) {
	steps := []models.Step{
		step("t", ""),
		step("a", "t"),
		step("orphan", "missing"),
	}

	topo := Build(steps)

	assert.Equal(t, 0, topo.Root)
	assert.Equal(t, [][]int{{0, 1}}, topo.Branches)
	assert.Equal(t, []int{0, 1, 2}, topo.Order)
	require.Len(t, topo.Warnings, 1)
	assert.Equal(t, models.WarningUnusualPattern, topo.Warnings[0].Code)
	assert.Contains(t, topo.Warnings[0].Message, "missing")
	assert.True(t, topo.Unusual())
}

func TestBuildOrphanDeclaredBeforeTrigger(t *testing.T) {
	steps := []models.Step{
		step("orphan", "missing"),
		step("t", ""),
		step("a", "t"),
	}

	topo := Build(steps)

	assert.Equal(t, 1, topo.Root)
	assert.Equal(t, [][]int{{1, 2}}, topo.Branches)
	assert.Equal(t, []int{1, 2, 0}, topo.Order)
	assert.Empty(t, topo.Unreachable)
	assert.True(t, topo.Unusual())

	applied := topo.Apply(models.Automation{ID: "1", Steps: steps})
	assert.Equal(t, models.RoleTrigger, applied.Steps[1].Role)
	assert.NotEqual(t, models.RoleTrigger, applied.Steps[0].Role)
}

func TestBuildSecondNullRootUsesFirstDeclared(t *testing.T) {
	steps := []models.Step{
		step("first", ""),
		step("second", ""),
		step("child", "second"),
	}

	topo := Build(steps)

	assert.Equal(t, 0, topo.Root)
	assert.Equal(t, [][]int{{0}}, topo.Branches)
	assert.Equal(t, []int{0, 1, 2}, topo.Order)
	require.Len(t, topo.Warnings, 1)
	assert.Contains(t, topo.Warnings[0].Message, "second root")
}

func TestBuildCycleIsReported(t *testing.T) {
	steps := []models.Step{
		step("t", ""),
		step("a", "b"),
		step("b", "a"),
	}

	topo := Build(steps)

	assert.Equal(t, []int{0}, topo.Order)
	assert.Equal(t, []int{1, 2}, topo.Unreachable)
	assert.True(t, topo.Unusual())
}

func TestBuildAllCycleFallsBackToFirstStep(t *testing.T) {
	steps := []models.Step{
		step("a", "b"),
		step("b", "a"),
	}

	topo := Build(steps)

	assert.Equal(t, 0, topo.Root)
	assert.Equal(t, []int{0, 1}, topo.Order)
	assert.True(t, topo.Unusual())
}

func TestBuildSelfParent(t *testing.T) {
	topo := Build([]models.Step{step("t", ""), step("s", "s")})
	assert.Equal(t, []int{0, 1}, topo.Order)
	assert.True(t, topo.Unusual())
}

func TestBuildEmpty(t *testing.T) {
	topo := Build(nil)
	assert.Equal(t, -1, topo.Root)
	assert.Empty(t, topo.Order)
	assert.Empty(t, topo.Branches)
}

func TestBuildHighComplexity(t *testing.T) {
	steps := []models.Step{step("s0", "")}
	for i := 1; i <= maxSimpleSteps; i++ {
		steps = append(steps, step(string(rune('a'+i)), steps[i-1].ID))
	}

	topo := Build(steps)

	require.NotEmpty(t, topo.Warnings)
	assert.Equal(t, models.WarningHighComplexity, topo.Warnings[len(topo.Warnings)-1].Code)
	assert.False(t, topo.Unusual())
}

func TestApplyAssignsTrigger(t *testing.T) {
	a := models.Automation{ID: "1", Steps: []models.Step{step("x", "t"), step("t", "")}}
	topo := Build(a.Steps)

	applied := topo.Apply(a)

	assert.Equal(t, models.RoleTrigger, applied.Steps[1].Role)
	assert.Equal(t, models.KindTrigger, applied.Steps[1].Kind)
	assert.Equal(t, models.RoleAction, applied.Steps[0].Role)
	// the input is left untouched
	assert.Equal(t, models.RoleAction, a.Steps[1].Role)
}
