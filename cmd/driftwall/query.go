package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftwall/driftwall/pkg/ipc"
)

func newQueryCmd(flags *sharedFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "List outputs and their current content.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, flags)
		},
	}
}

func runQuery(cmd *cobra.Command, flags *sharedFlags) error {
	conn, err := dial(flags)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SendQuery(flags.targets()); err != nil {
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
	info, _ := payload.(ipc.InfoReply)

	// spec.md §6 "Query output": "NAME: WxH, scale: S, currently
	// displaying: <content>" one line per output.
	for _, o := range info.Outputs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d, scale: %g, currently displaying: %s\n", o.Name, o.Width, o.Height, o.Scale, o.Content)
	}
	return nil
}
