package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type CmdEnv struct {
	log *slog.Logger
}

func (e CmdEnv) Run(args ...string) RunResult {
	return e.RunC(context.Background(), args...)
}

func (e CmdEnv) RunC(ctx context.Context, args ...string) RunResult {
	cmd := NewRootCmd(e.log)
	cmd.SetArgs(args)

	var res RunResult
	cmd.SetOut(&res.Stdout)
	cmd.SetErr(&res.Stderr)

	res.Err = cmd.ExecuteContext(ctx)

	return res
}

type RunResult struct {
	Stdout, Stderr bytes.Buffer
	Err            error
}

func (r RunResult) NoError(t *testing.T) {
	t.Helper()

	require.NoErrorf(t, r.Err, "OUT: %s\n\nERR: %s", r.Stdout.String(), r.Stderr.String())
}
