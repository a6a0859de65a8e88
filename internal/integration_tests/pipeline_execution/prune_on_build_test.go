package integration_tests

import (
	"testing"

	"github.com/specialistvlad/stagegrid/internal/executor"
	"github.com/specialistvlad/stagegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One host producer of two outputs, a host consumer of one of them and a
// staging node reading the consumer's output. The unused sibling branch is
// dropped.
const siblingBranchHCL = `
pipeline {
  outputs = ["data3_cont_host"]
}

operator "Dummy" "producer" {
  stage = "host"
  output "data1" { device = "host" }
  output "data2" { device = "host" }
}

operator "Copy" "consumer" {
  stage = "host"
  input  "data1" { device = "host" }
  output "data3" { device = "host" }
}

operator "Copy" "sibling" {
  stage = "host"
  input  "data2" { device = "host" }
  output "data4" { device = "host" }
}

operator "MakeContiguous" "contiguous" {
  stage = "staging"
  input  "data3"      { device = "host" }
  output "data3_cont" { device = "host" }
}
`

func TestPipelineExecution_BuildPrunesUnusedBranch(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.NewTestContext(t)
	g, outputs := loadPipeline(t, ctx, siblingBranchHCL)
	e, err := executor.New(executor.Config{BatchSize: 2, Workers: 2}, coreRegistry())
	require.NoError(t, err)

	// --- Act ---
	require.NoError(t, e.Build(ctx, g, outputs))

	// --- Assert ---
	pruned := e.Graph()
	assert.Equal(t, 3, pruned.NumNodes())
	assert.Equal(t, 2, pruned.NumHostOps())
	assert.Equal(t, 1, pruned.NumStagingOps())
	assert.Equal(t, 0, pruned.NumAcceleratorOps())
	var names []string
	for _, n := range pruned.Nodes() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"producer", "consumer", "contiguous"}, names)
	assert.Equal(t, 4, g.NumNodes(), "the loaded graph is left intact")

	runAllStages(t, ctx, e)
	v, err := e.Outputs()
	require.NoError(t, err)
	out, ok := v.ByName("data3_cont_host")
	require.True(t, ok)
	assert.Equal(t, 2, out.Len())
}

func TestPipelineExecution_LinearChainKeepsEveryNode(t *testing.T) {
	ctx, _ := testutil.NewTestContext(t)
	g, _ := loadPipeline(t, ctx, `
pipeline {
  outputs = ["c_host"]
}
operator "Dummy" "A" {
  stage = "host"
  output "a" { device = "host" }
}
operator "Copy" "B" {
  stage = "host"
  input  "a" { device = "host" }
  output "b" { device = "host" }
}
operator "Copy" "C" {
  stage = "host"
  input  "b" { device = "host" }
  output "c" { device = "host" }
}
`)
	e, err := executor.New(executor.Config{BatchSize: 1, Workers: 1}, coreRegistry())
	require.NoError(t, err)

	require.NoError(t, e.Build(ctx, g, []string{"c_host"}))

	pruned := e.Graph()
	require.Equal(t, 3, pruned.NumNodes())
	for id, name := range []string{"A", "B", "C"} {
		assert.Equal(t, name, pruned.Node(id).Name)
	}
}
