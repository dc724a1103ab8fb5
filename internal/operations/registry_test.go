package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStep is a minimal Step for registry and manager tests
type stubStep struct {
	BaseStep
	execute  func(ctx context.Context, state *OperationState) error
	validate func(state *OperationState) error
}

func newStubStep(id string, deps []string) *stubStep {
	return &stubStep{
		BaseStep: NewBaseStep(id, id, deps),
	}
}

func (s *stubStep) Execute(ctx context.Context, state *OperationState) error {
	if s.execute != nil {
		return s.execute(ctx, state)
	}
	return nil
}

func (s *stubStep) Validate(state *OperationState) error {
	if s.validate != nil {
		return s.validate(state)
	}
	return nil
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(newStubStep("a", nil)))
	assert.True(t, r.Has("a"))
	assert.Equal(t, 1, r.Count())

	// Duplicate registration fails
	assert.Error(t, r.Register(newStubStep("a", nil)))

	// Nil and empty-ID steps fail
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(newStubStep("", nil)))
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newStubStep("a", nil)))

	step, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", step.ID())

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestRegistryDependencyOrder(t *testing.T) {
	r := NewRegistry()

	// Register out of dependency order
	require.NoError(t, r.Register(newStubStep("export", []string{"summarize"})))
	require.NoError(t, r.Register(newStubStep("load", nil)))
	require.NoError(t, r.Register(newStubStep("summarize", []string{"featurize"})))
	require.NoError(t, r.Register(newStubStep("featurize", []string{"load"})))

	ordered, err := r.GetDependencyOrder()
	require.NoError(t, err)
	require.Len(t, ordered, 4)

	ids := make([]string, len(ordered))
	for i, step := range ordered {
		ids[i] = step.ID()
	}
	assert.Equal(t, []string{"load", "featurize", "summarize", "export"}, ids)
}

func TestRegistryDetectsCycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newStubStep("a", []string{"b"})))
	require.NoError(t, r.Register(newStubStep("b", []string{"a"})))

	_, err := r.GetDependencyOrder()
	assert.Error(t, err)
}

func TestRegistryMissingDependency(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newStubStep("a", []string{"ghost"})))

	assert.Error(t, r.ValidateDependencies())
}
