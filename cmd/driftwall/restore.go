package main

import (
	"github.com/spf13/cobra"

	"github.com/driftwall/driftwall/pkg/ipc"
)

func newRestoreCmd(flags *sharedFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Re-apply each output's last content (spec.md §4.G).",
		RunE: func(_ *cobra.Command, _ []string) error {
			return doSimpleRequest(flags, func(conn *ipc.Conn) error {
				return conn.SendRestore(flags.targets())
			})
		},
	}
}

func newKillCmd(flags *sharedFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "kill",
		Short: "Shut down the daemon.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return doSimpleRequest(flags, func(conn *ipc.Conn) error {
				return conn.SendKill()
			})
		},
	}
}

func newClearCacheCmd(flags *sharedFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Delete the on-disk decoded-animation cache.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return doSimpleRequest(flags, func(conn *ipc.Conn) error {
				return conn.SendClearCache()
			})
		},
	}
}
