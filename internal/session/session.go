package session

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"hyde/internal/template"
	"hyde/pkg/logging"
)

const subsystem = "Session"

// AllDomains is the hook key whose commands run after every domain.
const AllDomains = "*"

// DefaultTimeout bounds a single hook command.
const DefaultTimeout = 5 * time.Second

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// Applier pushes a domain's committed values into the live session.
type Applier interface {
	Apply(ctx context.Context, domain string, values map[string]any) error
}

// NoopApplier does nothing. It is used when live apply is disabled.
type NoopApplier struct{}

func (NoopApplier) Apply(context.Context, string, map[string]any) error { return nil }

// HookRunner runs templated commands per domain.
type HookRunner struct {
	hooks   map[string][]string
	timeout time.Duration
	engine  *template.Engine
}

// NewHookRunner creates a HookRunner. hooks maps domain names, or
// AllDomains, to command templates. A zero timeout means DefaultTimeout.
func NewHookRunner(hooks map[string][]string, timeout time.Duration) *HookRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	copied := make(map[string][]string, len(hooks))
	for domain, cmds := range hooks {
		copied[domain] = append([]string(nil), cmds...)
	}
	return &HookRunner{
		hooks:   copied,
		timeout: timeout,
		engine:  template.New(),
	}
}

// Domains returns the domains with hooks, sorted.
func (h *HookRunner) Domains() []string {
	out := make([]string, 0, len(h.hooks))
	for d := range h.hooks {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Commands returns the command templates that run for domain.
func (h *HookRunner) Commands(domain string) []string {
	cmds := append([]string(nil), h.hooks[domain]...)
	if domain != AllDomains {
		cmds = append(cmds, h.hooks[AllDomains]...)
	}
	return cmds
}

// Apply runs every hook of the domain in order. Values are available to the
// templates by key name, plus "domain". All hooks run even if one fails;
// the failures are joined.
func (h *HookRunner) Apply(ctx context.Context, domain string, values map[string]any) error {
	cmds := h.Commands(domain)
	if len(cmds) == 0 {
		return nil
	}

	vars := template.MergeContexts(map[string]any{"domain": domain}, values)

	var errs []error
	for _, tmpl := range cmds {
		if err := h.run(ctx, tmpl, vars); err != nil {
			logging.Warn(subsystem, "Hook for %s failed: %v", domain, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *HookRunner) run(ctx context.Context, tmpl string, vars map[string]any) error {
	args, err := h.engine.RenderArgs(tmpl, vars)
	if err != nil {
		return fmt.Errorf("hook %q: %w", tmpl, err)
	}

	cctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	logging.Debug(subsystem, "Running %s", strings.Join(args, " "))
	out, err := execCommandContext(cctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("hook %q timed out after %s", args[0], h.timeout)
		}
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("hook %q: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("hook %q: %w", args[0], err)
	}
	return nil
}
