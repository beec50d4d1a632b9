package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftwall/driftwall/pkg/ipc"
)

// sharedFlags holds the persistent flags every subcommand reads
// (spec.md §6 "Shared options").
type sharedFlags struct {
	outputs   []string
	namespace string
	all       bool
}

func (f sharedFlags) targets() []string {
	if f.all {
		return nil
	}
	return f.outputs
}

// exitError carries a specific process exit code, matching spec.md §6
// "Exit codes" (0 success, 1 generic failure, 2 protocol error, 3 no
// daemon running).
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func newExitError(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func Execute() {
	root := newRootCmd()
	root.SetContext(context.Background())
	root.SetOut(os.Stdout)

	if err := root.Execute(); err != nil {
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		fmt.Fprintln(os.Stderr, "driftwall:", err)
		os.Exit(code)
	}
}

func newRootCmd() *cobra.Command {
	flags := &sharedFlags{}

	root := &cobra.Command{
		Use:   "driftwall",
		Short: "Control a running driftwalld instance.",
		Long:  "driftwall talks to driftwalld over its namespaced Unix socket (spec.md).",
	}

	root.PersistentFlags().StringSliceVarP(&flags.outputs, "outputs", "o", nil, "comma-separated output names to target (default: all)")
	root.PersistentFlags().StringVarP(&flags.namespace, "namespace", "n", "", "daemon namespace (selects which driftwalld instance to talk to)")
	root.PersistentFlags().BoolVarP(&flags.all, "all", "a", false, "target every output explicitly (equivalent to omitting --outputs)")

	root.AddCommand(newQueryCmd(flags))
	root.AddCommand(newImgCmd(flags))
	root.AddCommand(newClearCmd(flags))
	root.AddCommand(newRestoreCmd(flags))
	root.AddCommand(newKillCmd(flags))
	root.AddCommand(newClearCacheCmd(flags))

	return root
}

// dial connects to the daemon for flags.namespace, turning a missing
// socket or refused connection into exit code 3 (spec.md §6 "no daemon
// running").
func dial(flags *sharedFlags) (*ipc.Conn, error) {
	path, err := ipc.SocketPath("", flags.namespace)
	if err != nil {
		return nil, newExitError(1, "%s", err)
	}
	conn, err := ipc.Dial(path)
	if err != nil {
		return nil, newExitError(3, "no driftwalld running for namespace %q: %v", flags.namespace, err)
	}
	return conn, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// doSimpleRequest sends a request that only ever replies Ok or Err,
// printing and converting the daemon's Err message into exit code 1.
func doSimpleRequest(flags *sharedFlags, send func(*ipc.Conn) error) error {
	conn, err := dial(flags)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := send(conn); err != nil {
		return newExitError(1, "%s", err)
	}

	kind, payload, err := conn.ReadReply()
	if err != nil {
		return newExitError(1, "%s", err)
	}
	if kind == ipc.ReplyErr {
		reply, _ := payload.(ipc.ErrReply)
		return newExitError(1, "%s", reply.Message)
	}
	return nil
}
