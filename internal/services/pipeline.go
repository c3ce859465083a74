package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/dirsh/internal/domain"
	"github.com/doeshing/dirsh/internal/ports"
)

// ErrExit is returned by the exit built-in to stop the interactive loop.
// It is not a failure; the pipeline propagates it without gating.
var ErrExit = errors.New("exit requested")

// HookDispatcher fires the preCommand/postCommand plugin calls around
// every resolved command execution. Hook failures are the dispatcher's
// problem to log; they never reach the pipeline.
type HookDispatcher interface {
	FirePreCommand(ctx context.Context, line string)
	FirePostCommand(ctx context.Context, line string)
}

// Pipeline turns one raw input line into executed effects: it splits
// the line into operator-merged segments, resolves each against
// aliases, registered commands, and external programs, and applies the
// &&/|| gates between them. One line runs to completion before the next
// is accepted; nothing here is concurrent.
type Pipeline struct {
	Registry *Registry
	Scope    *Scope
	Executor ports.CommandExecutor
	Hooks    HookDispatcher
	Logger   ports.Logger

	lastLine string
}

// Run executes a full input line. The returned error reflects the last
// executed segment; parse errors reject the line before anything runs.
func (p *Pipeline) Run(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if line == "." {
		if p.lastLine == "" {
			return fmt.Errorf("no previous command: %w", domain.ErrNotFound)
		}
		line = p.lastLine
	}

	segments, err := SplitSegments(line)
	if err != nil {
		return err
	}
	previous := p.lastLine
	p.lastLine = line

	return p.runSegments(ctx, segments, previous)
}

// runSegments applies the &&/|| gates over a segment list. previous is
// the input line a mid-chain `.` expands to; it is blanked one level
// down so a repeated line cannot re-repeat itself.
func (p *Pipeline) runSegments(ctx context.Context, segments []Segment, previous string) error {
	lastOK := true
	var lastErr error
	for _, seg := range segments {
		switch seg.Gate {
		case GateOnSuccess:
			if !lastOK {
				continue
			}
		case GateOnFailure:
			if lastOK {
				continue
			}
		}
		err := p.runSegment(ctx, seg.Text, previous)
		if errors.Is(err, ErrExit) {
			return err
		}
		lastOK = err == nil
		lastErr = err
	}
	return lastErr
}

// runSegment resolves and executes a single segment, firing the
// pre/post hooks around it. A literal `.` re-runs the previous input
// line in place of the segment, gates and all.
func (p *Pipeline) runSegment(ctx context.Context, text, previous string) error {
	if text == "." {
		if previous == "" {
			return fmt.Errorf("no previous command: %w", domain.ErrNotFound)
		}
		segments, err := SplitSegments(previous)
		if err != nil {
			return err
		}
		return p.runSegments(ctx, segments, "")
	}

	if p.Hooks != nil {
		p.Hooks.FirePreCommand(ctx, text)
	}
	err := p.execute(ctx, text)
	if p.Hooks != nil {
		p.Hooks.FirePostCommand(ctx, text)
	}
	return err
}

func (p *Pipeline) execute(ctx context.Context, text string) error {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	name, args := words[0], words[1:]

	if alias, aliasErr := p.Scope.LookupAlias(name); aliasErr == nil {
		return p.runAlias(ctx, alias, args)
	}

	if entry, ok := p.Registry.Resolve(name); ok {
		return entry.Handler.Execute(ctx, args)
	}

	result, err := p.Executor.Execute(ctx, domain.ExecRequest{Command: text})
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("%s: exit status %d", name, result.ExitCode)
	}
	return nil
}

// runAlias expands the alias body and executes each line through the
// system shell with the alias's output mode. Body lines are segmented
// with the same quote-aware splitter as top-level input, so merge
// operators inside alias bodies gate correctly. Execution stops at the
// first failing body line.
func (p *Pipeline) runAlias(ctx context.Context, alias domain.AliasDefinition, args []string) error {
	expanded, err := alias.Expand(args)
	if err != nil {
		return err
	}
	for _, line := range expanded {
		segments, err := SplitSegments(line)
		if err != nil {
			return err
		}
		lastOK := true
		var lastErr error
		for _, seg := range segments {
			switch seg.Gate {
			case GateOnSuccess:
				if !lastOK {
					continue
				}
			case GateOnFailure:
				if lastOK {
					continue
				}
			}
			segErr := p.runAliasSegment(ctx, alias, seg.Text)
			lastOK = segErr == nil
			lastErr = segErr
		}
		if lastErr != nil {
			return lastErr
		}
	}
	return nil
}

func (p *Pipeline) runAliasSegment(ctx context.Context, alias domain.AliasDefinition, text string) error {
	req := domain.ExecRequest{
		Command:        text,
		OutputToStderr: alias.Output == domain.OutputStderr,
		OutputFile:     alias.OutputFile(),
	}
	result, err := p.Executor.Execute(ctx, req)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("%s: exit status %d", alias.Name, result.ExitCode)
	}
	return nil
}
