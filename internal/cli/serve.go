package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/sparsegrid/internal/app"
	"github.com/spf13/cobra"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var (
		httpPort    int
		gatewayAddr string
		watch       bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sheet over socket.io with health and metrics endpoints.",
		Example: `  sparsegrid serve -s sales.hcl --gateway-addr :8090 --http-port 8080 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd, flags, func(c *app.Config) {
				if cmd.Flags().Changed("http-port") {
					c.HTTPPort = httpPort
				}
				if cmd.Flags().Changed("gateway-addr") {
					c.GatewayAddr = gatewayAddr
				}
				if cmd.Flags().Changed("watch") {
					c.Watch = watch
				}
			})
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		},
	}
	f := cmd.Flags()
	f.IntVar(&httpPort, "http-port", 0, "Port for the health and metrics HTTP server. 0 is disabled.")
	f.StringVar(&gatewayAddr, "gateway-addr", "", "Listen address of the socket.io gateway, e.g. :8090. Empty is disabled.")
	f.BoolVar(&watch, "watch", false, "Reload the sheet file when it changes.")
	return cmd
}
