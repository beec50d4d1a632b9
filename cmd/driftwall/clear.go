package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/ipc"
)

func newClearCmd(flags *sharedFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <rrggbb>",
		Short: "Fill the targeted outputs with a solid color.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			color := "000000"
			if len(args) == 1 {
				color = args[0]
			}
			c, err := parseHexColor(color)
			if err != nil {
				return newExitError(1, "%s", err)
			}
			return doSimpleRequest(flags, func(conn *ipc.Conn) error {
				return conn.SendClear(ipc.ClearRequest{Outputs: flags.targets(), Color: c})
			})
		},
	}
}

func parseHexColor(s string) (imaging.Color, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 3 {
		return imaging.Color{}, fmt.Errorf("invalid color %q, expected rrggbb", s)
	}
	return imaging.Color{R: b[0], G: b[1], B: b[2]}, nil
}
