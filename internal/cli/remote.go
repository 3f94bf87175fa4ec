package cli

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/sparsegrid/internal/app"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/spf13/cobra"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// remoteOptions configures one gateway request.
type remoteOptions struct {
	URL                string
	Namespace          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// remoteResult carries the gateway reply through the done channel.
type remoteResult struct {
	value any
	err   error
}

func newRemoteCommand() *cobra.Command {
	opts := remoteOptions{}
	cmd := &cobra.Command{
		Use:   "remote EVENT [JSON]",
		Short: "Send one request to a running gateway and print the reply.",
		Example: `  sparsegrid remote write '{"key": "0,0,0", "text": "6 * 7"}'
  sparsegrid remote read '{"key": "0,0,0"}'
  sparsegrid remote undo`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			event := args[0]
			if !slices.Contains(app.GatewayEvents, event) {
				return &ExitError{Code: 2, Message: fmt.Sprintf("unknown event %q", event)}
			}
			payload := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
					return &ExitError{Code: 2, Message: fmt.Sprintf("invalid JSON payload: %v", err)}
				}
			}

			reply, err := remoteRequest(cmd.Context(), opts, event, payload)
			if err != nil {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			out, err := json.MarshalIndent(reply, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if m, ok := reply.(map[string]any); ok && m["ok"] == false {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%s failed: %v", event, m["error"])}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.URL, "url", "http://localhost:8090/socket.io/", "Gateway URL.")
	f.StringVar(&opts.Namespace, "namespace", "/", "socket.io namespace.")
	f.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "How long to wait for the reply.")
	f.BoolVar(&opts.InsecureSkipVerify, "insecure-skip-verify", false, "Skip TLS certificate verification.")
	return cmd
}

// remoteRequest connects to the gateway, emits event with payload and waits
// for the result event.
func remoteRequest(ctx context.Context, in remoteOptions, event string, payload map[string]any) (any, error) {
	logger := ctxlog.FromContext(ctx).With("url", in.URL, "event", event)
	logger.Debug("Remote request started")
	defer logger.Debug("Remote request finished")

	var isConnected atomic.Bool

	done := make(chan remoteResult, 1)
	opCtx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	parsedURL, err := url.Parse(in.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)

	if in.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(in.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Connected to gateway", "sid", io.Id())
		io.Emit(event, payload)
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("connect error: %v", errs[0])
		}
		select {
		case done <- remoteResult{err: err}:
		default:
		}
	})

	io.On(types.EventName(app.EventResult), func(data ...any) {
		var value any
		if len(data) > 0 {
			value = data[0]
		}
		select {
		case done <- remoteResult{value: value}:
		default:
		}
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for the %q reply", event)
		}
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		return res.value, res.err
	}
}
