package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/stagegrid/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	defaults := app.DefaultConfig()

	testCases := []struct {
		name       string
		args       []string
		wantExit   bool
		wantErr    string
		assertions func(t *testing.T, cfg *app.Config)
	}{
		{
			name: "positional pipeline path uses defaults",
			args: []string{"pipelines/"},
			assertions: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, "pipelines/", cfg.PipelinePath)
				assert.Equal(t, defaults.BatchSize, cfg.BatchSize)
				assert.Equal(t, defaults.PrefetchDepth, cfg.PrefetchDepth)
				assert.Equal(t, defaults.LogLevel, cfg.LogLevel)
			},
		},
		{
			name: "flags override defaults",
			args: []string{
				"-p", "main.hcl",
				"--batch-size", "8",
				"--prefetch-depth", "3",
				"--workers", "2",
				"--iterations", "10",
				"--sample-bytes", "64",
				"--outputs", "a_host,b_accelerator",
				"--log-format", "JSON",
				"--log-level", "debug",
				"--healthcheck-port", "8080",
				"--trace-exporter", "stdout",
				"--metric-exporter", "none",
			},
			assertions: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, "main.hcl", cfg.PipelinePath)
				assert.Equal(t, 8, cfg.BatchSize)
				assert.Equal(t, 3, cfg.PrefetchDepth)
				assert.Equal(t, 2, cfg.Workers)
				assert.Equal(t, 10, cfg.Iterations)
				assert.Equal(t, 64, cfg.SampleBytes)
				assert.Equal(t, []string{"a_host", "b_accelerator"}, cfg.Outputs)
				assert.Equal(t, "json", cfg.LogFormat)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, 8080, cfg.HealthcheckPort)
				assert.Equal(t, "stdout", cfg.TraceExporter)
				assert.Equal(t, "none", cfg.MetricExporter)
			},
		},
		{
			name: "pipeline flag wins over positional",
			args: []string{"--pipeline", "flag.hcl", "positional.hcl"},
			assertions: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, "flag.hcl", cfg.PipelinePath)
			},
		},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "no pipeline", args: []string{}, wantExit: true},
		{name: "unknown flag", args: []string{"--nope"}, wantErr: "unknown flag: --nope"},
		{name: "too many args", args: []string{"a.hcl", "b.hcl"}, wantErr: "accepts at most 1 arg"},
		{name: "invalid log format", args: []string{"-p", "x.hcl", "--log-format", "xml"}, wantErr: "logformat"},
		{name: "invalid batch size", args: []string{"-p", "x.hcl", "--batch-size", "0"}, wantErr: "BatchSize"},
		{name: "missing config file", args: []string{"-p", "x.hcl", "--config", "/no/such/file.yaml"}, wantErr: "reading config file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}

			cfg, shouldExit, err := Parse(tc.args, out)

			if tc.wantErr != "" {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, shouldExit)
			if tc.wantExit {
				assert.Nil(t, cfg)
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			require.NotNil(t, cfg)
			tc.assertions(t, cfg)
		})
	}
}

func TestParse_ConfigFileWithFlagOverride(t *testing.T) {
	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "stagegrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline: from-file.hcl
batch_size: 16
workers: 6
`), 0o644))

	// --- Act ---
	cfg, shouldExit, err := Parse([]string{"--config", path, "--workers", "3"}, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "from-file.hcl", cfg.PipelinePath)
	assert.Equal(t, 16, cfg.BatchSize)
	assert.Equal(t, 3, cfg.Workers)
}
