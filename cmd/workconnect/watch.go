package main

import (
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/workconnect/session/internal/metrics"
)

func navigateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Run the route guards for a path and print where you end up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := c.app.Navigate(cmd.Context(), args[0])
			if d.Allow {
				fmt.Printf("allowed: %s\n", args[0])
				return nil
			}
			fmt.Printf("redirected: %s\n", d.Target())
			return nil
		},
	}
}

func watchCmd(c *cli) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the stored session fresh until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			notices, unsubscribe := c.app.Notices.Subscribe(8)
			defer unsubscribe()

			if !c.app.Auth.Resume(ctx) {
				return fmt.Errorf("not logged in")
			}

			// served stays nil without a metrics server, so its case never fires.
			var served chan error
			if metricsAddr != "" {
				ln, err := net.Listen("tcp", metricsAddr)
				if err != nil {
					return fmt.Errorf("failed to listen for metrics: %w", err)
				}
				served = make(chan error, 1)
				go func() { served <- metrics.Serve(ctx, ln, c.logger) }()
				fmt.Printf("Metrics on http://%s/metrics\n", ln.Addr())
			}
			fmt.Println("Watching session. Press Ctrl+C to stop.")

			for {
				select {
				case <-ctx.Done():
					if served != nil {
						return <-served
					}
					return nil
				case err := <-served:
					if err != nil {
						return fmt.Errorf("metrics server: %w", err)
					}
					return nil
				case n := <-notices:
					fmt.Printf("[%s] %s: %s\n", n.Level, n.Title, n.Message)
				}
			}
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}
