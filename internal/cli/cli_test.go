package cli

import (
	"io"
	"testing"

	"github.com/delegraph/delegraph/pkg/config"
	"github.com/delegraph/delegraph/pkg/pipeline"
)

func TestNew(t *testing.T) {
	c := New(io.Discard, LogInfo)

	if c.Logger == nil {
		t.Error("New() should create a logger")
	}
	if c.Config == nil {
		t.Error("New() should seed a default config")
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"generate", "collapse", "resolve", "render", "runs", "cache", "serve", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestPipelineOptionsDefaults(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config = config.Default()

	popts := c.pipelineOptions(resolveOpts{})

	if popts.Engine != c.Config.Resolve.Engine {
		t.Errorf("Engine = %q, want config default %q", popts.Engine, c.Config.Resolve.Engine)
	}
	if popts.Tolerance != c.Config.Resolve.Tolerance {
		t.Errorf("Tolerance = %v, want config default %v", popts.Tolerance, c.Config.Resolve.Tolerance)
	}
	if popts.MaxIterations != c.Config.Resolve.MaxIterations {
		t.Errorf("MaxIterations = %d, want config default %d", popts.MaxIterations, c.Config.Resolve.MaxIterations)
	}
}

func TestPipelineOptionsFlagsWin(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config = config.Default()

	popts := c.pipelineOptions(resolveOpts{
		engine:        pipeline.EngineIterative,
		tolerance:     1e-12,
		maxIterations: 500,
		check:         true,
	})

	if popts.Engine != pipeline.EngineIterative {
		t.Errorf("Engine = %q, want %q", popts.Engine, pipeline.EngineIterative)
	}
	if popts.Tolerance != 1e-12 {
		t.Errorf("Tolerance = %v, want 1e-12", popts.Tolerance)
	}
	if popts.MaxIterations != 500 {
		t.Errorf("MaxIterations = %d, want 500", popts.MaxIterations)
	}
	if !popts.Check {
		t.Error("Check should be carried through")
	}
}
