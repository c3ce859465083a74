package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/dirsh/internal/domain"
	"github.com/doeshing/dirsh/internal/pkg/logger"
)

// stubShellExecutor scripts exit codes per command for pipeline tests.
type stubShellExecutor struct {
	failing  map[string]int
	executed []domain.ExecRequest
}

func (s *stubShellExecutor) Execute(_ context.Context, req domain.ExecRequest) (domain.ExecResult, error) {
	s.executed = append(s.executed, req)
	if code, ok := s.failing[req.Command]; ok {
		return domain.ExecResult{Ran: true, ExitCode: code}, nil
	}
	return domain.ExecResult{Ran: true, ExitCode: 0}, nil
}

func (s *stubShellExecutor) commands() []string {
	out := make([]string, 0, len(s.executed))
	for _, req := range s.executed {
		out = append(out, req.Command)
	}
	return out
}

// stubHooks records hook invocations.
type stubHooks struct {
	pre  []string
	post []string
}

func (h *stubHooks) FirePreCommand(_ context.Context, line string)  { h.pre = append(h.pre, line) }
func (h *stubHooks) FirePostCommand(_ context.Context, line string) { h.post = append(h.post, line) }

func newTestPipeline(t *testing.T, store *stubDefinitionStore, exec *stubShellExecutor) (*Pipeline, *stubHooks) {
	t.Helper()
	scope := newTestScope(store)
	if err := scope.Recompute(context.Background(), "/work"); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	hooks := &stubHooks{}
	return &Pipeline{
		Registry: NewRegistry(),
		Scope:    scope,
		Executor: exec,
		Hooks:    hooks,
		Logger:   logger.NewStd(false, nil),
	}, hooks
}

func TestGateEvaluation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		failing map[string]int
		wantRun []string
		wantErr bool
	}{
		{
			name:    "and runs second on success",
			line:    "a && b",
			wantRun: []string{"a", "b"},
		},
		{
			name:    "and skips second on failure",
			line:    "a && b",
			failing: map[string]int{"a": 1},
			wantRun: []string{"a"},
			wantErr: true,
		},
		{
			name:    "or skips second on success",
			line:    "a || b",
			wantRun: []string{"a"},
		},
		{
			name:    "or runs second on failure",
			line:    "a || b",
			failing: map[string]int{"a": 1},
			wantRun: []string{"a", "b"},
		},
		{
			name:    "skipped segment does not gate the next",
			line:    "a || b && c",
			wantRun: []string{"a", "c"},
		},
		{
			name:    "executed fallback gates the next",
			line:    "a || b && c",
			failing: map[string]int{"a": 1, "b": 1},
			wantRun: []string{"a", "b"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &stubShellExecutor{failing: tt.failing}
			p, _ := newTestPipeline(t, &stubDefinitionStore{}, exec)
			err := p.Run(context.Background(), tt.line)
			if tt.wantErr && err == nil {
				t.Fatal("Run() expected failure status")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if diff := cmp.Diff(tt.wantRun, exec.commands()); diff != "" {
				t.Errorf("executed commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrorExecutesNothing(t *testing.T) {
	exec := &stubShellExecutor{}
	p, hooks := newTestPipeline(t, &stubDefinitionStore{}, exec)

	err := p.Run(context.Background(), "ls &&")
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("Run() error = %v, want ErrParse", err)
	}
	if len(exec.executed) != 0 {
		t.Fatalf("segments executed despite parse error: %v", exec.commands())
	}
	if len(hooks.pre) != 0 {
		t.Fatal("hooks fired despite parse error")
	}
}

func TestAliasResolutionAndExpansion(t *testing.T) {
	store := &stubDefinitionStore{aliases: []domain.AliasDefinition{{
		ID: 1, Name: "open", Directory: "/work",
		Commands: []string{"fossil open fossil/$1.fossil --workdir $1"},
	}}}
	exec := &stubShellExecutor{}
	p, _ := newTestPipeline(t, store, exec)

	if err := p.Run(context.Background(), "open myrepo"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"fossil open fossil/myrepo.fossil --workdir myrepo"}
	if diff := cmp.Diff(want, exec.commands()); diff != "" {
		t.Errorf("alias expansion mismatch (-want +got):\n%s", diff)
	}

	if err := p.Run(context.Background(), "open"); !errors.Is(err, domain.ErrMissingArgument) {
		t.Fatalf("Run() error = %v, want ErrMissingArgument", err)
	}
}

func TestAliasOutputModeReachesExecutor(t *testing.T) {
	store := &stubDefinitionStore{aliases: []domain.AliasDefinition{{
		ID: 1, Name: "noisy", Directory: "/work",
		Commands: []string{"make"},
		Output:   domain.OutputStderr,
	}, {
		ID: 2, Name: "logged", Directory: "/work",
		Commands: []string{"make"},
		Output:   "/tmp/build.log",
	}}}
	exec := &stubShellExecutor{}
	p, _ := newTestPipeline(t, store, exec)

	if err := p.Run(context.Background(), "noisy"); err != nil {
		t.Fatalf("Run(noisy) error = %v", err)
	}
	if !exec.executed[0].OutputToStderr {
		t.Error("stderr output mode not propagated")
	}
	if exec.executed[0].Interactive() {
		t.Error("redirected output must detach stdin")
	}

	if err := p.Run(context.Background(), "logged"); err != nil {
		t.Fatalf("Run(logged) error = %v", err)
	}
	if exec.executed[1].OutputFile != "/tmp/build.log" {
		t.Errorf("file output mode not propagated, got %q", exec.executed[1].OutputFile)
	}
}

func TestAliasBodyMergeOperators(t *testing.T) {
	store := &stubDefinitionStore{aliases: []domain.AliasDefinition{{
		ID: 1, Name: "rebuild", Directory: "/work",
		Commands: []string{"make clean && make"},
	}}}
	exec := &stubShellExecutor{failing: map[string]int{"make clean": 1}}
	p, _ := newTestPipeline(t, store, exec)

	if err := p.Run(context.Background(), "rebuild"); err == nil {
		t.Fatal("Run() expected failure from gated body line")
	}
	want := []string{"make clean"}
	if diff := cmp.Diff(want, exec.commands()); diff != "" {
		t.Errorf("gated alias body mismatch (-want +got):\n%s", diff)
	}
}

func TestDotRepeatsPreviousLine(t *testing.T) {
	exec := &stubShellExecutor{}
	p, _ := newTestPipeline(t, &stubDefinitionStore{}, exec)

	if err := p.Run(context.Background(), "echo hi"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := p.Run(context.Background(), "."); err != nil {
		t.Fatalf("Run(.) error = %v", err)
	}
	want := []string{"echo hi", "echo hi"}
	if diff := cmp.Diff(want, exec.commands()); diff != "" {
		t.Errorf("dot repeat mismatch (-want +got):\n%s", diff)
	}
}

func TestDotSegmentRepeatsPreviousLine(t *testing.T) {
	exec := &stubShellExecutor{}
	p, _ := newTestPipeline(t, &stubDefinitionStore{}, exec)

	if err := p.Run(context.Background(), "echo first"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := p.Run(context.Background(), "true && ."); err != nil {
		t.Fatalf("Run(true && .) error = %v", err)
	}
	want := []string{"echo first", "true", "echo first"}
	if diff := cmp.Diff(want, exec.commands()); diff != "" {
		t.Errorf("dot segment mismatch (-want +got):\n%s", diff)
	}
}

func TestDotSegmentRepeatsMergedLineWithGates(t *testing.T) {
	exec := &stubShellExecutor{failing: map[string]int{"a": 1}}
	p, _ := newTestPipeline(t, &stubDefinitionStore{}, exec)

	if err := p.Run(context.Background(), "a || b"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := p.Run(context.Background(), "true && ."); err != nil {
		t.Fatalf("Run(true && .) error = %v", err)
	}
	// The repeated line keeps its own gating: a fails, b recovers.
	want := []string{"a", "b", "true", "a", "b"}
	if diff := cmp.Diff(want, exec.commands()); diff != "" {
		t.Errorf("dot segment mismatch (-want +got):\n%s", diff)
	}
}

func TestDotSegmentFailureGatesFollowingSegment(t *testing.T) {
	exec := &stubShellExecutor{failing: map[string]int{"boom": 1}}
	p, _ := newTestPipeline(t, &stubDefinitionStore{}, exec)

	if err := p.Run(context.Background(), "boom"); err == nil {
		t.Fatal("Run(boom) expected failure status")
	}
	if err := p.Run(context.Background(), ". && after"); err == nil {
		t.Fatal("Run(. && after) expected failure status")
	}
	want := []string{"boom", "boom"}
	if diff := cmp.Diff(want, exec.commands()); diff != "" {
		t.Errorf("dot gating mismatch (-want +got):\n%s", diff)
	}
}

func TestDotWithoutHistoryFails(t *testing.T) {
	p, _ := newTestPipeline(t, &stubDefinitionStore{}, &stubShellExecutor{})
	if err := p.Run(context.Background(), "."); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Run(.) error = %v, want ErrNotFound", err)
	}
}

func TestRegistryCommandPreferredOverExternal(t *testing.T) {
	exec := &stubShellExecutor{}
	p, _ := newTestPipeline(t, &stubDefinitionStore{}, exec)
	called := false
	err := p.Registry.Seed([]domain.CommandEntry{{
		Name: "greet",
		Handler: domain.HandlerFunc(func(ctx context.Context, args []string) error {
			called = true
			return nil
		}),
	}})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	if err := p.Run(context.Background(), "greet world"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !called {
		t.Fatal("registered handler not invoked")
	}
	if len(exec.executed) != 0 {
		t.Fatal("external executor invoked for a registered command")
	}
}

func TestAliasShadowsRegistryEntry(t *testing.T) {
	store := &stubDefinitionStore{aliases: []domain.AliasDefinition{{
		ID: 1, Name: "greet", Directory: "/work", Commands: []string{"echo alias"},
	}}}
	exec := &stubShellExecutor{}
	p, _ := newTestPipeline(t, store, exec)
	err := p.Registry.Seed([]domain.CommandEntry{{
		Name: "greet",
		Handler: domain.HandlerFunc(func(ctx context.Context, args []string) error {
			t.Fatal("registry handler invoked although alias is in scope")
			return nil
		}),
	}})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	if err := p.Run(context.Background(), "greet"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"echo alias"}
	if diff := cmp.Diff(want, exec.commands()); diff != "" {
		t.Errorf("alias precedence mismatch (-want +got):\n%s", diff)
	}
}

func TestHooksFireAroundEverySegment(t *testing.T) {
	exec := &stubShellExecutor{failing: map[string]int{"a": 1}}
	p, hooks := newTestPipeline(t, &stubDefinitionStore{}, exec)

	_ = p.Run(context.Background(), "a || b")
	want := []string{"a", "b"}
	if diff := cmp.Diff(want, hooks.pre); diff != "" {
		t.Errorf("preCommand hooks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, hooks.post); diff != "" {
		t.Errorf("postCommand hooks mismatch (-want +got):\n%s", diff)
	}
}

func TestExitPropagates(t *testing.T) {
	exec := &stubShellExecutor{}
	p, _ := newTestPipeline(t, &stubDefinitionStore{}, exec)
	err := p.Registry.Seed([]domain.CommandEntry{{
		Name: "exit",
		Handler: domain.HandlerFunc(func(ctx context.Context, args []string) error {
			return ErrExit
		}),
	}})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	if err := p.Run(context.Background(), "exit && echo later"); !errors.Is(err, ErrExit) {
		t.Fatalf("Run() error = %v, want ErrExit", err)
	}
	if len(exec.executed) != 0 {
		t.Fatal("segments executed after exit")
	}
}
