package integration_tests

import (
	"context"
	"testing"

	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/executor"
	"github.com/specialistvlad/stagegrid/internal/graph"
	"github.com/specialistvlad/stagegrid/internal/hcl_adapter"
	"github.com/specialistvlad/stagegrid/internal/registry"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
	"github.com/specialistvlad/stagegrid/internal/testutil"
	"github.com/specialistvlad/stagegrid/modules/copy_tensors"
	"github.com/specialistvlad/stagegrid/modules/dummy"
	"github.com/specialistvlad/stagegrid/modules/external_source"
	"github.com/specialistvlad/stagegrid/modules/make_contiguous"
	"github.com/stretchr/testify/require"
)

func coreRegistry(extra ...registry.Module) *registry.Registry {
	modules := []registry.Module{
		&external_source.Module{},
		&copy_tensors.Module{},
		&make_contiguous.Module{},
		&dummy.Module{},
	}
	return registry.NewWithModules(append(modules, extra...)...)
}

// loadPipeline writes hcl to a temp dir and returns the graph and the
// outputs of its pipeline block.
func loadPipeline(t *testing.T, ctx context.Context, hcl string) (*graph.Graph, []string) {
	t.Helper()
	dir := testutil.WritePipelineFiles(t, map[string]string{"pipeline.hcl": hcl})
	model, err := hcl_adapter.NewLoader().Load(ctx, dir)
	require.NoError(t, err)
	g, err := model.Graph(ctx)
	require.NoError(t, err)
	return g, model.Outputs
}

func feedBytes(t *testing.T, e *executor.Executor, source string, samples ...[]byte) {
	t.Helper()
	batch, err := buffer.FromBytes(tensorref.Host, samples...)
	require.NoError(t, err)
	require.NoError(t, e.FeedExternal(source, batch))
}

func runAllStages(t *testing.T, ctx context.Context, e *executor.Executor) {
	t.Helper()
	require.NoError(t, e.RunHostStage(ctx))
	require.NoError(t, e.RunStagingStage(ctx))
	require.NoError(t, e.RunAcceleratorStage(ctx))
}
