package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGroupsTable(t *testing.T) {
	r := NewRegistry(nil)

	expected := []string{
		"project", "model", "tools", "generate", "compiler", "simulator",
		"debugger", "profiler", "randomgen", "uvm", "find_files",
		"directory_collect", "test_metadata", "test_type",
	}
	assert.Equal(t, expected, r.Groups())

	// The compiler group carries one requirement option per runtime library.
	compiler := r.Group("compiler")
	require.NotNil(t, compiler)
	assert.Len(t, compiler.Options, 1+len(CompilerLibraries))
	for _, lib := range CompilerLibraries {
		_, ok := compiler.Option(lib)
		assert.True(t, ok, "missing compiler option %s", lib)
	}

	// Variadic flags survive table construction.
	assert.True(t, r.Group("randomgen").VarKwargs)
	assert.False(t, r.Group("randomgen").VarArgs)
	assert.True(t, r.Group("test_metadata").VarArgs)
	assert.True(t, r.Group("test_metadata").VarKwargs)

	// test_type options carry the whitelist.
	enable, ok := r.Group("test_type").Option("enable")
	require.True(t, ok)
	assert.Equal(t, TestTypes, enable.Choices)
}

func TestRegistryResolveSelection(t *testing.T) {
	r := NewRegistry(nil)

	ctx := &Context{
		Invocations: map[string]Invocation{
			"model": {Kwargs: map[string]any{"ia": true}},
		},
		GlobalVars: map[string]any{"SIMULATOR_DUMP": true},
	}

	out, err := r.Resolve(ctx, "model", "simulator")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, true, out["model"].Value("ia"))
	assert.Equal(t, true, out["simulator"].Value("dump"))
}

func TestRegistryResolveSkipsUnknownGroups(t *testing.T) {
	r := NewRegistry(nil)

	out, err := r.Resolve(&Context{}, "model", "nonexistent")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out, "model")
}

func TestRegistryResolvePropagatesValidationErrors(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Resolve(&Context{
		Invocations: map[string]Invocation{
			"model": {Kwargs: map[string]any{"ia": "yes"}},
		},
	}, "model")
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
}
