package integration_tests

import (
	"testing"

	"github.com/specialistvlad/stagegrid/internal/executor"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
	"github.com/specialistvlad/stagegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadHCL = `
pipeline {
  outputs = ["frames_accelerator"]
}

operator "ExternalSource" "reader" {
  stage = "host"
  output "raw" { device = "host" }
}

operator "Copy" "decode" {
  stage = "host"
  input  "raw"    { device = "host" }
  output "pixels" { device = "host" }
}

operator "MakeContiguous" "stage_in" {
  stage = "staging"
  input  "pixels" { device = "host" }
  output "packed" { device = "host" }
}

operator "Copy" "upload" {
  stage = "accelerator"
  input  "packed" { device = "host" }
  output "frames" { device = "accelerator" }
}
`

func TestPipelineExecution_HalfBatchesComeBackInOrder(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.NewTestContext(t)
	g, outputs := loadPipeline(t, ctx, uploadHCL)
	e, err := executor.New(executor.Config{BatchSize: 4, Workers: 2, PrefetchDepth: 2}, coreRegistry())
	require.NoError(t, err)
	require.NoError(t, e.Build(ctx, g, outputs))

	firstHalf := [][]byte{{10, 11, 12}, {13, 14, 15}}
	secondHalf := [][]byte{{20, 21, 22}, {23, 24, 25}}

	// --- Act ---
	feedBytes(t, e, "reader", firstHalf...)
	runAllStages(t, ctx, e)
	feedBytes(t, e, "reader", secondHalf...)
	runAllStages(t, ctx, e)

	first, err := e.Outputs()
	require.NoError(t, err)
	second, err := e.Outputs()
	require.NoError(t, err)

	// --- Assert ---
	for _, tc := range []struct {
		view *executor.View
		want [][]byte
	}{
		{first, firstHalf},
		{second, secondHalf},
	} {
		frames, ok := tc.view.ByName("frames_accelerator")
		require.True(t, ok)
		assert.Equal(t, tensorref.Accelerator, frames.Device())
		require.Equal(t, len(tc.want), frames.Len())
		for i, want := range tc.want {
			assert.Equal(t, want, frames.Sample(i).AsUint8())
		}
	}
	assert.NotEqual(t, first.Slot(), second.Slot())
}
