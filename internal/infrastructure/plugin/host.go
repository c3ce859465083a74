package plugin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/doeshing/dirsh/internal/domain"
	"github.com/doeshing/dirsh/internal/ports"
	"github.com/doeshing/dirsh/internal/services"
)

// ErrCallUnsupported marks a plugin exiting with code 2: the call is
// not implemented by this plugin. Lifecycle transitions treat it as a
// successful no-op.
var ErrCallUnsupported = errors.New("call not supported by plugin")

// maxProtocolLine caps a single protocol line; help content is the
// largest payload the protocol carries.
const maxProtocolLine = 1 << 20

// Printer renders plugin-originated output to the user. The cli package
// provides the styled implementation.
type Printer interface {
	ShowOutput(text, color string)
	ShowError(text string)
}

// plainPrinter is the fallback when no styled printer is wired.
type plainPrinter struct{}

func (plainPrinter) ShowOutput(text, _ string) { fmt.Fprintln(os.Stdout, text) }
func (plainPrinter) ShowError(text string)     { fmt.Fprintln(os.Stderr, text) }

// Host manages plugin process lifecycles and executes their calls. All
// invocations are blocking subprocess calls on the single execution
// thread; the cached record list is only mutated between them.
type Host struct {
	store    ports.PluginStore
	options  ports.OptionStore
	help     ports.HelpStore
	registry *services.Registry
	logger   ports.Logger
	printer  Printer
	timeout  time.Duration

	records []domain.PluginRecord
}

// NewHost wires a host. timeout bounds every plugin call's output read.
func NewHost(store ports.PluginStore, options ports.OptionStore, help ports.HelpStore,
	registry *services.Registry, logger ports.Logger, printer Printer, timeout time.Duration) *Host {
	if printer == nil {
		printer = plainPrinter{}
	}
	if timeout <= 0 {
		timeout = domain.DefaultPluginTimeout
	}
	return &Host{
		store:    store,
		options:  options,
		help:     help,
		registry: registry,
		logger:   logger,
		printer:  printer,
		timeout:  timeout,
	}
}

// SetPrinter swaps the output renderer in after construction; the cli
// layer wires its styled renderer here.
func (h *Host) SetPrinter(p Printer) {
	if p != nil {
		h.printer = p
	}
}

// LoadState restores plugin records and their persisted command
// registrations from the store. Called once at startup.
func (h *Host) LoadState(ctx context.Context) error {
	records, err := h.store.Plugins(ctx)
	if err != nil {
		return fmt.Errorf("load plugins: %w", err)
	}
	h.records = records

	commands, err := h.store.PluginCommands(ctx)
	if err != nil {
		return fmt.Errorf("load plugin commands: %w", err)
	}
	for name, pluginID := range commands {
		err := h.registry.Register(domain.CommandEntry{
			Name:     name,
			Origin:   domain.OriginPlugin,
			PluginID: pluginID,
			Handler:  h.trampoline(pluginID, name),
		})
		if err != nil {
			h.logger.Warn("stale plugin command skipped", map[string]interface{}{
				"command": name, "plugin": pluginID, "error": err.Error(),
			})
		}
	}
	return nil
}

// Plugins returns the cached records.
func (h *Host) Plugins() []domain.PluginRecord {
	return h.records
}

// Find returns the record with the given identifier.
func (h *Host) Find(id int64) (domain.PluginRecord, error) {
	for _, rec := range h.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.PluginRecord{}, fmt.Errorf("plugin %d: %w", id, domain.ErrNotFound)
}

// Add installs the plugin at path: it runs the mandatory info call,
// validates the declared API version against the engine minimum, then
// persists the record and runs install. Install failure rolls the
// record back; the store is left unchanged on every failure path.
func (h *Host) Add(ctx context.Context, path string) (domain.PluginRecord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.PluginRecord{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil || fi.IsDir() || fi.Mode().Perm()&0o111 == 0 {
		return domain.PluginRecord{}, fmt.Errorf("%s is not an executable: %w", abs, domain.ErrPluginUnavailable)
	}

	probe := domain.PluginRecord{Path: abs}
	answer, err := h.Call(ctx, probe, domain.CallInfo)
	if err != nil {
		return domain.PluginRecord{}, fmt.Errorf("info call failed: %w", domain.ErrPluginUnavailable)
	}
	if answer == "" {
		return domain.PluginRecord{}, fmt.Errorf("plugin gave no info answer: %w", domain.ErrPluginUnavailable)
	}
	info, err := domain.ParsePluginInfo(answer)
	if err != nil {
		return domain.PluginRecord{}, err
	}
	version, err := domain.ParseAPIVersion(info.APIVersion)
	if err != nil {
		return domain.PluginRecord{}, fmt.Errorf("%v: %w", err, domain.ErrPluginUnavailable)
	}
	min, _ := domain.ParseAPIVersion(domain.MinPluginAPIVersion)
	if !version.AtLeast(min) {
		return domain.PluginRecord{}, fmt.Errorf("api version %s below minimum %s: %w",
			info.APIVersion, domain.MinPluginAPIVersion, domain.ErrPluginUnavailable)
	}

	// Persist before install so commands the plugin registers during
	// its install call carry a valid owner id.
	rec, err := h.store.AddPlugin(ctx, domain.PluginRecord{
		Name:        info.Name,
		Path:        abs,
		APIVersion:  info.APIVersion,
		Description: info.Description,
		Calls:       info.Calls,
	})
	if err != nil {
		return domain.PluginRecord{}, err
	}
	h.records = append(h.records, rec)

	if err := h.transitionCall(ctx, rec, domain.CallInstall); err != nil {
		h.registry.RemoveOwnedBy(rec.ID)
		h.dropRecord(rec.ID)
		_ = h.store.DeletePlugin(ctx, rec.ID)
		return domain.PluginRecord{}, fmt.Errorf("install failed: %w", err)
	}
	return rec, nil
}

// Enable runs the enable call and flips the flag. A failing enable call
// leaves the plugin disabled.
func (h *Host) Enable(ctx context.Context, id int64) error {
	return h.toggle(ctx, id, domain.CallEnable, true)
}

// Disable runs the disable call and flips the flag.
func (h *Host) Disable(ctx context.Context, id int64) error {
	return h.toggle(ctx, id, domain.CallDisable, false)
}

func (h *Host) toggle(ctx context.Context, id int64, call string, enabled bool) error {
	rec, err := h.Find(id)
	if err != nil {
		return err
	}
	if err := h.transitionCall(ctx, rec, call); err != nil {
		return fmt.Errorf("%s failed: %w", call, err)
	}
	if err := h.store.SetPluginEnabled(ctx, id, enabled); err != nil {
		return err
	}
	for i := range h.records {
		if h.records[i].ID == id {
			h.records[i].Enabled = enabled
		}
	}
	return nil
}

// Remove runs uninstall, then cascades: every registry entry the plugin
// owns is unregistered and the record and its persisted command
// registrations are deleted.
func (h *Host) Remove(ctx context.Context, id int64) error {
	rec, err := h.Find(id)
	if err != nil {
		return err
	}
	if err := h.transitionCall(ctx, rec, domain.CallUninstall); err != nil {
		return fmt.Errorf("uninstall failed: %w", err)
	}
	h.registry.RemoveOwnedBy(id)
	h.dropRecord(id)
	return h.store.DeletePlugin(ctx, id)
}

// Info re-runs the info call for an installed plugin.
func (h *Host) Info(ctx context.Context, id int64) (string, error) {
	rec, err := h.Find(id)
	if err != nil {
		return "", err
	}
	return h.Call(ctx, rec, domain.CallInfo)
}

func (h *Host) dropRecord(id int64) {
	for i := range h.records {
		if h.records[i].ID == id {
			h.records = append(h.records[:i], h.records[i+1:]...)
			return
		}
	}
}

// transitionCall runs a lifecycle call; exit code 2 (plugin does not
// implement the call) is a successful no-op.
func (h *Host) transitionCall(ctx context.Context, rec domain.PluginRecord, call string) error {
	_, err := h.Call(ctx, rec, call)
	if errors.Is(err, ErrCallUnsupported) {
		return nil
	}
	return err
}

// Call spawns the plugin with the lower-cased call name as its first
// argument, reads its standard output to end-of-stream under the host
// timeout, and dispatches each non-empty line as a shell-side API call.
// Malformed lines are logged and skipped; the process exit code governs
// the result of the call as a whole. The returned string is the
// accumulated answer text.
func (h *Host) Call(ctx context.Context, rec domain.PluginRecord, call string, args ...string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	argv := append([]string{strings.ToLower(call)}, args...)
	cmd := exec.CommandContext(callCtx, rec.Path, argv...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("spawn %s: %v: %w", rec.Path, err, domain.ErrPluginUnavailable)
	}

	sess := &session{
		host:      h,
		rec:       rec,
		stdin:     stdin,
		queryOnly: strings.EqualFold(call, domain.CallInfo),
	}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxProtocolLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := sess.dispatch(ctx, line); err != nil {
			h.logger.Warn("plugin protocol line rejected", map[string]interface{}{
				"plugin": rec.Path, "call": call, "line": line, "error": err.Error(),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		h.logger.Warn("plugin output stream truncated", map[string]interface{}{
			"plugin": rec.Path, "call": call, "error": err.Error(),
		})
	}
	_ = stdin.Close()
	waitErr := cmd.Wait()

	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return sess.answerText(), fmt.Errorf("plugin %s call %s timed out after %s", rec.Path, call, h.timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if exitErr.ExitCode() == domain.PluginExitUnsupported {
			return sess.answerText(), fmt.Errorf("plugin %s call %s: %w", rec.Path, call, ErrCallUnsupported)
		}
		return sess.answerText(), fmt.Errorf("plugin %s call %s: exit status %d", rec.Path, call, exitErr.ExitCode())
	}
	if waitErr != nil {
		return sess.answerText(), waitErr
	}
	return sess.answerText(), nil
}

// FirePreCommand implements services.HookDispatcher.
func (h *Host) FirePreCommand(ctx context.Context, line string) {
	h.fireHook(ctx, domain.CallPreCommand, line)
}

// FirePostCommand implements services.HookDispatcher.
func (h *Host) FirePostCommand(ctx context.Context, line string) {
	h.fireHook(ctx, domain.CallPostCommand, line)
}

// fireHook invokes the call on every enabled plugin that declared it.
// Hook failures are logged and never propagate: a plugin can never
// block command execution.
func (h *Host) fireHook(ctx context.Context, call, line string) {
	for _, rec := range h.records {
		if !rec.Enabled || !rec.UsesCall(call) {
			continue
		}
		if _, err := h.Call(ctx, rec, call, line); err != nil && !errors.Is(err, ErrCallUnsupported) {
			h.logger.Warn("plugin hook failed", map[string]interface{}{
				"plugin": rec.Name, "call": call, "error": err.Error(),
			})
		}
	}
}

// trampoline builds the registry handler for a plugin-registered
// command: resolving the name re-invokes the plugin process with the
// command name as the call verb.
func (h *Host) trampoline(pluginID int64, name string) domain.Handler {
	return domain.HandlerFunc(func(ctx context.Context, args []string) error {
		rec, err := h.Find(pluginID)
		if err != nil {
			return err
		}
		if !rec.Enabled {
			return fmt.Errorf("plugin %s is disabled: %w", rec.Name, domain.ErrPluginUnavailable)
		}
		_, err = h.Call(ctx, rec, name, args...)
		return err
	})
}

// session carries the per-call state the protocol dispatcher needs: the
// answer accumulator and the plugin's stdin for getOption write-backs.
// queryOnly sessions (the info call) accept nothing but answer lines, so
// a plugin that has not been validated yet cannot register commands or
// touch the option store.
type session struct {
	host      *Host
	rec       domain.PluginRecord
	stdin     io.WriteCloser
	queryOnly bool
	answer    []string
}

func (s *session) answerText() string {
	return strings.Join(s.answer, "\n")
}

func (s *session) dispatch(ctx context.Context, line string) error {
	verb, args, err := parseCall(line)
	if err != nil {
		return err
	}
	if s.queryOnly && verb != verbAnswer {
		return fmt.Errorf("%s is not allowed during an info call: %w", verb, domain.ErrProtocolViolation)
	}
	h := s.host

	switch verb {
	case verbShowError:
		if err := requireArgs(verb, args, 1); err != nil {
			return err
		}
		h.printer.ShowError(strings.Join(args, " "))

	case verbShowOutput:
		if err := requireArgs(verb, args, 1); err != nil {
			return err
		}
		color := ""
		if len(args) > 1 {
			color = args[1]
		}
		h.printer.ShowOutput(args[0], color)

	case verbSetOption:
		if err := requireArgs(verb, args, 2); err != nil {
			return err
		}
		opt := domain.OptionDefinition{Name: args[0], Value: args[1]}
		if len(args) > 2 {
			opt.Description = args[2]
		}
		if len(args) > 3 {
			opt.Type = args[3]
		}
		return h.options.SetOption(ctx, opt)

	case verbRemoveOption:
		if err := requireArgs(verb, args, 1); err != nil {
			return err
		}
		return h.options.RemoveOption(ctx, args[0])

	case verbGetOption:
		if err := requireArgs(verb, args, 1); err != nil {
			return err
		}
		opt, err := h.options.GetOption(ctx, args[0])
		if err != nil {
			// The plugin is blocked reading stdin; an empty line lets
			// it continue instead of stalling out the call timeout.
			_, _ = fmt.Fprintln(s.stdin)
			return err
		}
		_, err = fmt.Fprintln(s.stdin, opt.Value)
		return err

	case verbAnswer:
		if err := requireArgs(verb, args, 1); err != nil {
			return err
		}
		s.answer = append(s.answer, strings.Join(args, " "))

	case verbAddCommand:
		if err := requireArgs(verb, args, 1); err != nil {
			return err
		}
		name := args[0]
		err := h.registry.Register(domain.CommandEntry{
			Name:     name,
			Origin:   domain.OriginPlugin,
			PluginID: s.rec.ID,
			Handler:  h.trampoline(s.rec.ID, name),
		})
		if err != nil {
			return err
		}
		return h.store.AddPluginCommand(ctx, name, s.rec.ID)

	case verbDeleteCommand:
		if err := requireArgs(verb, args, 1); err != nil {
			return err
		}
		if err := h.registry.Unregister(args[0]); err != nil {
			return err
		}
		return h.store.DeletePluginCommand(ctx, args[0])

	case verbReplaceCommand:
		if err := requireArgs(verb, args, 1); err != nil {
			return err
		}
		name := args[0]
		err := h.registry.Replace(domain.CommandEntry{
			Name:     name,
			Origin:   domain.OriginPlugin,
			PluginID: s.rec.ID,
			Handler:  h.trampoline(s.rec.ID, name),
		})
		if err != nil {
			return err
		}
		return h.store.AddPluginCommand(ctx, name, s.rec.ID)

	case verbAddHelp, verbUpdateHelp:
		if err := requireArgs(verb, args, 3); err != nil {
			return err
		}
		return h.help.UpsertHelp(ctx, domain.HelpTopic{Topic: args[0], Usage: args[1], Content: args[2]})

	case verbDeleteHelp:
		if err := requireArgs(verb, args, 1); err != nil {
			return err
		}
		return h.help.DeleteHelp(ctx, args[0])

	default:
		return fmt.Errorf("unknown verb %q: %w", verb, domain.ErrProtocolViolation)
	}
	return nil
}

var _ ports.PluginRunner = (*Host)(nil)
var _ services.HookDispatcher = (*Host)(nil)
