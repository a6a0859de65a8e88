package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/stagegrid/internal/operator"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopModule struct{ opType string }

func (m noopModule) Register(r *Registry) {
	r.RegisterOperator(m.opType, &RegisteredOperator{
		Stages: []opspec.Stage{opspec.Host},
		New: func(*opspec.Spec) (operator.Operator, error) {
			return operator.Func(func(context.Context, *workspace.Workspace) error { return nil }), nil
		},
	})
}

func TestRegistry_RegisterAndInstantiate(t *testing.T) {
	r := NewWithModules(noopModule{opType: "B"}, noopModule{opType: "A"})

	assert.Equal(t, []string{"A", "B"}, r.Types())

	op, err := r.Instantiate(opspec.New("A", opspec.Host))
	require.NoError(t, err)
	require.NotNil(t, op)
	require.NoError(t, op.Run(context.Background(), nil))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewWithModules(noopModule{opType: "A"})
	assert.Panics(t, func() { noopModule{opType: "A"}.Register(r) })
	assert.Panics(t, func() { r.RegisterOperator("nil", &RegisteredOperator{}) })
}

func TestRegistry_Errors(t *testing.T) {
	r := NewWithModules(noopModule{opType: "A"})
	r.RegisterOperator("Broken", &RegisteredOperator{
		New: func(*opspec.Spec) (operator.Operator, error) { return nil, errors.New("boom") },
	})

	_, err := r.Instantiate(opspec.New("Missing", opspec.Host))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = r.Instantiate(opspec.New("A", opspec.Accelerator))
	assert.ErrorIs(t, err, ErrUnsupportedStage)

	_, err = r.Instantiate(opspec.New("Broken", opspec.Staging))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
