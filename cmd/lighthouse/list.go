package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opscart/zap-lighthouse/pkg/archive"
	"github.com/opscart/zap-lighthouse/pkg/engine"
	"github.com/opscart/zap-lighthouse/pkg/output"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <export.zip|export-dir>",
		Short: "List the zaps in an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := archive.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open export: %w", err)
			}
			zaps, err := engine.List(a)
			if err != nil {
				return err
			}
			handler, err := output.NewHandler(cfg.Output.Format, stdout)
			if err != nil {
				return err
			}
			return handler.DisplayList(context.Background(), zaps)
		},
	}
}
