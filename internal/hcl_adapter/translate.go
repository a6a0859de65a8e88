package hcl_adapter

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/stagegrid/internal/config"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
)

// translateOperator converts a decoded operator block into the
// format-agnostic declaration.
func (l *Loader) translateOperator(ctx context.Context, b *operatorBlock, where string) (*config.OperatorDecl, error) {
	logger := ctxlog.FromContext(ctx)
	stage, err := opspec.ParseStage(b.Stage)
	if err != nil {
		return nil, fmt.Errorf("operator %q in %s: %w", b.Name, where, err)
	}
	spec := opspec.New(b.Type, stage)

	for _, in := range b.Inputs {
		ref, err := translateTensor(in)
		if err != nil {
			return nil, fmt.Errorf("operator %q in %s, input: %w", b.Name, where, err)
		}
		spec.AddInput(ref.Name, ref.Device)
	}
	for _, out := range b.Outputs {
		ref, err := translateTensor(out)
		if err != nil {
			return nil, fmt.Errorf("operator %q in %s, output: %w", b.Name, where, err)
		}
		spec.AddOutput(ref.Name, ref.Device)
	}

	if b.Args != nil && b.Args.Body != nil {
		attrs, diags := b.Args.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("operator %q in %s, args: %w", b.Name, where, diags)
		}
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			// args are constants; no variables or functions are in scope
			val, diags := attrs[name].Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("operator %q in %s, arg %q: %w", b.Name, where, name, diags)
			}
			spec.AddArg(name, val)
		}
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("operator %q in %s: %w", b.Name, where, err)
	}
	logger.Debug("Translated operator block.", "type", b.Type, "name", b.Name, "stage", stage.String(), "inputs", len(spec.Inputs), "outputs", len(spec.Outputs), "args", len(spec.Args))
	return &config.OperatorDecl{Name: b.Name, Spec: spec, Source: where}, nil
}

func translateTensor(b *tensorBlock) (tensorref.Ref, error) {
	if err := tensorref.ValidateName(b.Name); err != nil {
		return tensorref.Ref{}, err
	}
	device, err := tensorref.ParseDevice(b.Device)
	if err != nil {
		return tensorref.Ref{}, fmt.Errorf("tensor %q: %w", b.Name, err)
	}
	return tensorref.New(b.Name, device), nil
}
