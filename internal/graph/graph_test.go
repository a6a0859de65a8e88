package graph

import (
	"errors"
	"testing"

	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostOp(opType string) *opspec.Spec { return opspec.New(opType, opspec.Host) }

func TestAddOperator_WiresParentsAndChildren(t *testing.T) {
	g := New()
	require.NoError(t, g.AddOperator(hostOp("ExternalSource").AddOutput("data", tensorref.Host), "source"))
	require.NoError(t, g.AddOperator(hostOp("Copy").
		AddInput("data", tensorref.Host).
		AddOutput("copied", tensorref.Host), "copy"))
	require.NoError(t, g.AddOperator(opspec.New("MakeContiguous", opspec.Staging).
		AddInput("data", tensorref.Host).
		AddInput("copied", tensorref.Host).
		AddOutput("data", tensorref.Accelerator), "upload"))

	assert.Equal(t, 3, g.NumNodes())
	assert.Equal(t, 2, g.NumHostOps())
	assert.Equal(t, 1, g.NumStagingOps())
	assert.Equal(t, 0, g.NumAcceleratorOps())

	assert.Equal(t, []int{1, 2}, g.Node(0).Children())
	assert.Equal(t, []int{0}, g.Node(1).Parents())
	assert.Equal(t, []int{0, 1}, g.Node(2).Parents())
	assert.Empty(t, g.Node(2).Children())

	src, err := g.TensorSource(tensorref.New("data", tensorref.Accelerator))
	require.NoError(t, err)
	assert.Equal(t, TensorSource{Node: 2, Output: 0}, src)

	n, ok := g.NodeByName("copy")
	require.True(t, ok)
	assert.Equal(t, 1, n.ID)
	require.NoError(t, g.Validate())
}

func TestAddOperator_GeneratesNames(t *testing.T) {
	g := New()
	require.NoError(t, g.AddOperator(hostOp("Dummy").AddOutput("a", tensorref.Host), ""))
	require.NoError(t, g.AddOperator(hostOp("Dummy").AddOutput("b", tensorref.Host), ""))

	assert.Equal(t, "Dummy_0", g.Node(0).Name)
	assert.Equal(t, "Dummy_1", g.Node(1).Name)
}

func TestAddOperator_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		spec     *opspec.Spec
		opName   string
		expected ErrorKind
	}{
		{
			name:     "unresolved input",
			spec:     hostOp("Copy").AddInput("missing", tensorref.Host).AddOutput("x", tensorref.Host),
			expected: UnresolvedInput,
		},
		{
			name: "input on wrong device",
			spec: opspec.New("Copy", opspec.Accelerator).
				AddInput("data", tensorref.Accelerator).
				AddOutput("x", tensorref.Accelerator),
			expected: UnresolvedInput,
		},
		{
			name:     "duplicate output",
			spec:     hostOp("Dummy").AddOutput("data", tensorref.Host),
			expected: DuplicateTensor,
		},
		{
			name:     "output declared twice",
			spec:     hostOp("Dummy").AddOutput("y", tensorref.Host).AddOutput("y", tensorref.Host),
			expected: DuplicateTensor,
		},
		{
			name:     "duplicate name",
			spec:     hostOp("Dummy").AddOutput("z", tensorref.Host),
			opName:   "source",
			expected: DuplicateName,
		},
		{
			name:     "host producing accelerator data",
			spec:     hostOp("Dummy").AddOutput("z", tensorref.Accelerator),
			expected: InvalidDevice,
		},
		{
			name: "staging reading accelerator data",
			spec: opspec.New("Copy", opspec.Staging).
				AddInput("z", tensorref.Accelerator).
				AddOutput("w", tensorref.Accelerator),
			expected: InvalidDevice,
		},
		{
			name:     "accelerator producing host data",
			spec:     opspec.New("Dummy", opspec.Accelerator).AddOutput("z", tensorref.Host),
			expected: InvalidDevice,
		},
		{
			name:     "malformed spec",
			spec:     opspec.New("", opspec.Host),
			expected: InvalidSpec,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := New()
			require.NoError(t, g.AddOperator(hostOp("ExternalSource").AddOutput("data", tensorref.Host), "source"))

			err := g.AddOperator(tc.spec, tc.opName)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrGraph)
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.expected, kind)
			assert.Equal(t, 1, g.NumNodes(), "a failed add must not change the graph")
			require.NoError(t, g.Validate())
		})
	}
}

func TestAddOperator_CopiesSpec(t *testing.T) {
	g := New()
	spec := hostOp("Dummy").AddOutput("a", tensorref.Host)
	require.NoError(t, g.AddOperator(spec, "a"))

	spec.AddOutput("b", tensorref.Host)

	assert.Len(t, g.Node(0).Outputs(), 1)
	assert.False(t, g.HasTensor(tensorref.New("b", tensorref.Host)))
}

func TestTensorSource_Unknown(t *testing.T) {
	g := New()
	_, err := g.TensorSource(tensorref.New("nope", tensorref.Host))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTensor))
	assert.False(t, errors.Is(err, ErrUnknownOutput))
}

func TestTopologicalOrder(t *testing.T) {
	g := New()
	require.NoError(t, g.AddOperator(hostOp("Dummy").AddOutput("a", tensorref.Host), "a"))
	require.NoError(t, g.AddOperator(hostOp("Dummy").AddOutput("b", tensorref.Host), "b"))
	require.NoError(t, g.AddOperator(hostOp("Copy").AddInput("b", tensorref.Host).AddOutput("c", tensorref.Host), "c"))
	require.NoError(t, g.AddOperator(hostOp("Copy").
		AddInput("a", tensorref.Host).
		AddInput("c", tensorref.Host).
		AddOutput("d", tensorref.Host).
		AddOutput("e", tensorref.Host), "d"))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, order)

	pos := make(map[int]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, n := range g.Nodes() {
		for _, p := range n.Parents() {
			assert.Less(t, pos[p], pos[n.ID])
		}
	}
}

func TestClone_IsIndependent(t *testing.T) {
	g := New()
	require.NoError(t, g.AddOperator(hostOp("Dummy").AddOutput("a", tensorref.Host).AddOutput("b", tensorref.Host), "p"))
	require.NoError(t, g.AddOperator(hostOp("Copy").AddInput("a", tensorref.Host).AddOutput("c", tensorref.Host), "c"))

	c := g.Clone()
	require.NoError(t, c.Prune([]tensorref.Ref{tensorref.New("b", tensorref.Host)}))

	assert.Equal(t, 1, c.NumNodes())
	assert.Equal(t, 2, g.NumNodes())
	assert.Equal(t, []int{1}, g.Node(0).Children())
	require.NoError(t, g.Validate())
	require.NoError(t, c.Validate())
}
