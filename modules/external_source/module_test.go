package external_source

import (
	"context"
	"testing"

	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/graph"
	"github.com/specialistvlad/stagegrid/internal/operator"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/registry"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
	"github.com/specialistvlad/stagegrid/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceWorkspace(t *testing.T, batchSize int) *workspace.Workspace {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.AddOperator(opspec.New(Type, opspec.Host).AddOutput("data", tensorref.Host), "src"))
	sets, err := workspace.Allocate(context.Background(), g, 1, batchSize)
	require.NoError(t, err)
	return sets.Node(0, 0)
}

func TestSource_FIFO(t *testing.T) {
	// --- Arrange ---
	r := registry.NewWithModules(&Module{})
	op, err := r.Instantiate(opspec.New(Type, opspec.Host).AddOutput("data", tensorref.Host))
	require.NoError(t, err)
	ext, ok := operator.AsExternal(op)
	require.True(t, ok)

	first, err := buffer.FromBytes(tensorref.Host, []byte{1}, []byte{2})
	require.NoError(t, err)
	second, err := buffer.FromBytes(tensorref.Host, []byte{3}, []byte{4})
	require.NoError(t, err)
	require.NoError(t, ext.SetDataSource(first))
	require.NoError(t, ext.SetDataSource(second))
	assert.Equal(t, 2, ext.Pending())

	ws := sourceWorkspace(t, 2)

	// --- Act & Assert ---
	require.NoError(t, op.Run(context.Background(), ws))
	assert.Equal(t, []uint8{1}, ws.Output(0).Sample(0).AsUint8())
	assert.Equal(t, 1, ext.Pending())

	require.NoError(t, op.Run(context.Background(), ws))
	assert.Equal(t, []uint8{4}, ws.Output(0).Sample(1).AsUint8())
	assert.Equal(t, 0, ext.Pending())

	assert.ErrorIs(t, op.Run(context.Background(), ws), ErrNoData)
}

func TestSource_QueuesPrivateCopy(t *testing.T) {
	// --- Arrange ---
	src := &Source{}
	batch, err := buffer.FromBytes(tensorref.Host, []byte{1, 1}, []byte{2, 2})
	require.NoError(t, err)
	ws := sourceWorkspace(t, 2)

	// --- Act ---
	require.NoError(t, src.SetDataSource(batch))
	copy(batch.Sample(0).AsUint8(), []byte{9, 9})
	require.NoError(t, src.Run(context.Background(), ws))
	copy(batch.Sample(1).AsUint8(), []byte{8, 8})

	// --- Assert ---
	assert.Equal(t, []uint8{1, 1}, ws.Output(0).Sample(0).AsUint8())
	assert.Equal(t, []uint8{2, 2}, ws.Output(0).Sample(1).AsUint8())
}

func TestSource_RejectsBadBatches(t *testing.T) {
	src := &Source{}

	require.Error(t, src.SetDataSource(nil))
	require.Error(t, src.SetDataSource(buffer.New(tensorref.Host)))

	acc, err := buffer.FromBytes(tensorref.Accelerator, []byte{1})
	require.NoError(t, err)
	require.Error(t, src.SetDataSource(acc))

	partial := buffer.New(tensorref.Host)
	partial.Resize(2)
	require.Error(t, src.SetDataSource(partial))

	tooBig, err := buffer.FromBytes(tensorref.Host, []byte{1}, []byte{2}, []byte{3})
	require.NoError(t, err)
	require.NoError(t, src.SetDataSource(tooBig))
	require.Error(t, src.Run(context.Background(), sourceWorkspace(t, 2)))
}

func TestNew_ValidatesWiring(t *testing.T) {
	_, err := New(opspec.New(Type, opspec.Host))
	require.Error(t, err)

	_, err = New(opspec.New(Type, opspec.Host).AddInput("x", tensorref.Host).AddOutput("y", tensorref.Host))
	require.Error(t, err)
}
