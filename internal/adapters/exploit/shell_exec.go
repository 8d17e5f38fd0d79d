// Package exploit implements the out-of-process shell exploit runner
// (§3, §9 "Dynamic exploit loading" option (a)): exploit bodies and hooks
// are plain shell commands, immune to user-code crashes by construction.
package exploit

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/lcalzada-xor/fast/internal/core/domain"
)

// ShellRunner executes `run`/`prepare`/`cleanup` as `/bin/sh -c` commands.
type ShellRunner struct {
	Shell string // defaults to /bin/sh
}

// New builds a ShellRunner.
func New() *ShellRunner {
	return &ShellRunner{Shell: "/bin/sh"}
}

func (r *ShellRunner) shell() string {
	if r.Shell == "" {
		return "/bin/sh"
	}
	return r.Shell
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}

// Run executes def.Run against host, with [ip] substituted for host and,
// if flagID is non-empty, [flag_id] substituted too (§4.3 step 6). Output
// is captured regardless of exit status; a non-zero exit is not itself an
// error — the caller only cares about the text for flag matching.
func (r *ShellRunner) Run(ctx context.Context, def domain.ExploitDefinition, host, flagID string) (string, error) {
	cmd := def.Run
	cmd = strings.ReplaceAll(cmd, "[ip]", host)
	cmd = strings.ReplaceAll(cmd, "[flag_id]", flagID)

	var out bytes.Buffer
	proc := exec.CommandContext(ctx, r.shell(), "-c", cmd)
	proc.Env = append(proc.Environ(), envSlice(def.Env)...)
	proc.Stdout = &out
	proc.Stderr = &out

	if err := proc.Run(); err != nil {
		if ctx.Err() != nil {
			return out.String(), ctx.Err()
		}
		// Non-zero exit is a normal outcome for an exploit probe; its
		// captured output still goes to the flag matcher.
		return out.String(), nil
	}
	return out.String(), nil
}

// RunHook executes a prepare/cleanup script synchronously, once.
func (r *ShellRunner) RunHook(ctx context.Context, def domain.ExploitDefinition, script string) error {
	if script == "" {
		return nil
	}
	proc := exec.CommandContext(ctx, r.shell(), "-c", script)
	proc.Env = append(proc.Environ(), envSlice(def.Env)...)

	var out bytes.Buffer
	proc.Stdout = &out
	proc.Stderr = &out
	if err := proc.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("exploit: hook %q: %w: %s", def.Name, err, out.String())
	}
	return nil
}
