package hcl_adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/stagegrid/internal/config"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths. Files are read in lexical order
// and operators are kept in the order they appear. Exactly one pipeline
// block must exist across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := &config.Model{}
	var pipelines []*pipelineBlock
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, op := range root.Operators {
			decl, err := l.translateOperator(ctx, op, file)
			if err != nil {
				return nil, err
			}
			model.Operators = append(model.Operators, decl)
		}
		pipelines = append(pipelines, root.Pipelines...)
	}

	switch len(pipelines) {
	case 0:
		return nil, errors.New("no pipeline block found")
	case 1:
		model.Outputs = pipelines[0].Outputs
	default:
		return nil, fmt.Errorf("expected exactly one pipeline block, found %d", len(pipelines))
	}
	if len(model.Outputs) == 0 {
		return nil, errors.New("pipeline block must list at least one output")
	}

	logger.Debug("HCL loading complete.", "operators", len(model.Operators), "outputs", model.Outputs)
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a sorted, de-duplicated
// list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var allFiles []string
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			files, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(filepath.Clean(f))
			}
		} else if filepath.Ext(path) == ".hcl" {
			add(filepath.Clean(path))
		}
	}
	sort.Strings(allFiles)
	return allFiles, nil
}
