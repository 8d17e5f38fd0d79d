// Package submitter implements the out-of-process submit(flags) gateway
// (§9 "User-supplied submitter"): a child process is given the queued
// values on stdin and must answer with a verdict map on stdout, keeping
// the host immune to a broken or crashing submit module.
package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// ShellSubmitter invokes `module` as a child process for every submission
// round (§4.8 step 3).
type ShellSubmitter struct {
	Module string
	Shell  string
}

// New builds a ShellSubmitter running the configured submitter.module.
func New(module string) *ShellSubmitter {
	return &ShellSubmitter{Module: module, Shell: "/bin/sh"}
}

type submitResponse struct {
	Accepted map[string]string `json:"accepted"`
	Rejected map[string]string `json:"rejected"`
}

// Submit writes values as a JSON array to the child's stdin and parses its
// stdout JSON {accepted,rejected} response (§4.8 step 3, §9).
func (s *ShellSubmitter) Submit(ctx context.Context, values []string) (accepted, rejected map[string]string, err error) {
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, nil, fmt.Errorf("submitter: marshal values: %w", err)
	}

	shell := s.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", s.Module)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, nil, fmt.Errorf("submitter: child process failed: %w: %s", err, stderr.String())
	}

	var resp submitResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, nil, fmt.Errorf("submitter: parse child response: %w", err)
	}
	return resp.Accepted, resp.Rejected, nil
}
