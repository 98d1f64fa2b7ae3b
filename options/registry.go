package options

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/log"
)

// Test types a test case may opt in or out of.
const (
	TestTypeDefault       = "default"
	TestTypeIPNightly     = "ip_nightly"
	TestTypeIPRelease     = "ip_release"
	TestTypeStudioNightly = "studio_nightly"
	TestTypeStudioRelease = "studio_release"
)

// TestTypes enumerates the choice whitelist of the test_type group.
var TestTypes = []any{
	TestTypeDefault,
	TestTypeIPNightly,
	TestTypeIPRelease,
	TestTypeStudioNightly,
	TestTypeStudioRelease,
}

// CompilerLibraries are the runtime libraries a compiler build may carry;
// each contributes a bool requirement option to the compiler group.
var CompilerLibraries = []string{"startup", "compiler_rt", "newlib", "stdcxx", "cxxabi"}

// DefaultGroups returns the full declarative option table. The registry is
// built from it once at startup; the table itself is never mutated.
func DefaultGroups() []*Group {
	compiler := NewGroup("compiler",
		Option{Name: "optimization", StaticName: "COMPILER_OPTIMIZATION", Types: []Kind{Collection, String, Int}},
	)
	for _, lib := range CompilerLibraries {
		compiler.Add(Option{
			Name:       lib,
			StaticName: "COMPILER_" + strings.ToUpper(lib),
			Types:      []Kind{Bool},
		})
	}

	return []*Group{
		NewGroup("project",
			Option{Name: "asip", StaticName: "PROJECT_ASIP", Types: []Kind{Bool}},
			Option{Name: "pattern", StaticName: "PROJECT_PATTERN", Types: []Kind{String}},
			Option{Name: "disable", StaticName: "PROJECT_PATTERN_DISABLE", Types: []Kind{String}},
		),
		NewGroup("model",
			Option{Name: "ia", StaticName: "MODEL_IA", Types: []Kind{Bool}},
			Option{Name: "asip", StaticName: "MODEL_ASIP", Types: []Kind{Bool}},
			Option{Name: "top", StaticName: "MODEL_TOP", Types: []Kind{Bool}},
			Option{Name: "pattern", StaticName: "MODEL_PATTERN", Types: []Kind{String}},
			Option{Name: "disable", StaticName: "MODEL_PATTERN_DISABLE", Types: []Kind{String}},
		),
		NewGroup("tools",
			Option{Name: "configurations", StaticName: "TOOLS_CONFIGURATIONS", Types: []Kind{Map}},
			Option{Name: "filter", StaticName: "TOOLS_CONFIGURATIONS_FILTER", Types: []Kind{Func}},
			Option{Name: "id_generator", StaticName: "TOOLS_CONFIGURATIONS_ID_GENERATOR", Types: []Kind{Func}},
		),
		NewGroup("generate",
			Option{Name: "combinations", StaticName: "GENERATE_COMBINATIONS", Types: []Kind{Map}},
			Option{Name: "filter", StaticName: "GENERATE_COMBINATIONS_FILTER", Types: []Kind{Func}},
			Option{Name: "id_generator", StaticName: "GENERATE_COMBINATIONS_ID_GENERATOR", Types: []Kind{Func}},
		),
		compiler,
		NewGroup("simulator",
			Option{Name: "ia", StaticName: "SIMULATOR_IA", Types: []Kind{Bool}},
			Option{Name: "debugger", StaticName: "SIMULATOR_DEBUGGER", Types: []Kind{Bool}},
			Option{Name: "dump", StaticName: "SIMULATOR_DUMP", Types: []Kind{Bool}},
			Option{Name: "profiler", StaticName: "SIMULATOR_PROFILER", Types: []Kind{Bool}},
		),
		NewGroup("debugger",
			Option{Name: "ia", StaticName: "DEBUGGER_IA", Types: []Kind{Bool}},
			Option{Name: "codal_debugger", StaticName: "DEBUGGER_CODAL", Types: []Kind{Bool}},
		),
		NewGroup("profiler",
			Option{Name: "ia", StaticName: "PROFILER_IA", Types: []Kind{Bool}},
		),
		func() *Group {
			g := NewGroup("randomgen",
				Option{Name: "one_per_testcase", StaticName: "RANDOMGEN_ONE_PER_TESTCASE", Types: []Kind{Bool}},
			)
			g.VarKwargs = true
			return g
		}(),
		NewGroup("uvm",
			Option{Name: "hdl_languages", StaticName: "UVM_HDL_LANGUAGES", Types: []Kind{Collection, String}},
			Option{Name: "rtl_simulators", StaticName: "UVM_RTL_SIMULATORS", Types: []Kind{Collection, String}},
			Option{Name: "synthesis_tools", StaticName: "UVM_SYNTHESIS_TOOLS", Types: []Kind{Collection, String}},
		),
		NewGroup("find_files",
			Option{Name: "name", StaticName: "FIND_FILES_NAME", Types: []Kind{String}},
			Option{Name: "path", StaticName: "FIND_FILES_PATH", Types: []Kind{String}},
			Option{Name: "pattern", StaticName: "FIND_FILES_PATTERN", Types: []Kind{Collection, String}},
			Option{Name: "exclude", StaticName: "FIND_FILES_EXCLUDE", Types: []Kind{Collection, String}},
		),
		NewGroup("directory_collect",
			Option{Name: "name", StaticName: "DIRECTORY_COLLECT_NAME", Types: []Kind{String}},
			Option{Name: "path", StaticName: "DIRECTORY_COLLECT_PATH", Types: []Kind{String}},
			Option{Name: "pattern", StaticName: "DIRECTORY_COLLECT_PATTERN", Types: []Kind{Collection, String}},
			Option{Name: "exclude", StaticName: "DIRECTORY_COLLECT_EXCLUDE", Types: []Kind{Collection, String}},
		),
		func() *Group {
			g := NewGroup("test_metadata")
			g.VarArgs = true
			g.VarKwargs = true
			return g
		}(),
		NewGroup("test_type",
			Option{Name: "enable", StaticName: "TEST_TYPE_ENABLE", Types: []Kind{Collection, String}, Choices: TestTypes},
			Option{Name: "disable", StaticName: "TEST_TYPE_DISABLE", Types: []Kind{Collection, String}, Choices: TestTypes},
		),
	}
}

// Registry holds an immutable set of option groups and resolves selections
// of them against a context.
type Registry struct {
	groups []*Group
	log    log.Logger
}

// NewRegistry builds a registry over the given groups; with none it loads
// DefaultGroups.
func NewRegistry(logger log.Logger, groups ...*Group) *Registry {
	if logger == nil {
		logger = log.Root()
	}
	if len(groups) == 0 {
		groups = DefaultGroups()
	}
	return &Registry{groups: groups, log: logger}
}

// Group returns the named group, or nil when it is not registered.
func (r *Registry) Group(name string) *Group {
	for _, g := range r.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Groups returns the registered group names in declaration order.
func (r *Registry) Groups() []string {
	names := make([]string, len(r.groups))
	for i, g := range r.groups {
		names[i] = g.Name
	}
	return names
}

// Resolve resolves the named groups against ctx; with no names it resolves
// every registered group. Unknown names are logged and skipped. The first
// validation failure aborts the resolution.
func (r *Registry) Resolve(ctx *Context, names ...string) (map[string]*GroupValues, error) {
	if len(names) == 0 {
		names = r.Groups()
	}

	out := make(map[string]*GroupValues, len(names))
	for _, name := range names {
		g := r.Group(name)
		if g == nil {
			r.log.Warn("Unknown option group, ignoring", "group", name)
			continue
		}
		values, err := g.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving option group %s: %w", name, err)
		}
		out[name] = values
	}
	return out, nil
}
