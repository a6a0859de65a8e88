package app

import (
	"os"
	"testing"

	"github.com/specialistvlad/stagegrid/internal/hcl_adapter"
	"github.com/specialistvlad/stagegrid/internal/registry"
	"github.com/specialistvlad/stagegrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

const feedPipelineHCL = `
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

operator "MakeContiguous" "upload" {
  stage = "staging"
  input  "pixels" { device = "host" }
  output "frames" { device = "accelerator" }
}

operator "Dummy" "unused" {
  stage = "host"
  output "noise" { device = "host" }
}
`

// testConfig returns a valid config for a pipeline written to a temp dir.
func testConfig(t *testing.T, pipeline string) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PipelinePath = testutil.WritePipelineFiles(t, map[string]string{"pipeline.hcl": pipeline})
	cfg.LogLevel = "debug"
	cfg.MetricExporter = "none"
	validated, err := NewConfig(cfg)
	require.NoError(t, err)
	return validated
}

// setupAppTest creates a new app instance for system testing.
func setupAppTest(t *testing.T, cfg *Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	testApp, err := NewApp(logBuffer, cfg, hcl_adapter.NewLoader(), modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("STAGEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
