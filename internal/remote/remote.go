// Package remote submits formula batches to a running formula server over
// socket.io and waits for the answer.
package remote

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/formulagrid/internal/api"
	"github.com/vk/formulagrid/internal/ctxlog"
	"github.com/vk/formulagrid/internal/formula"
	"github.com/vk/formulagrid/internal/server"
)

// DefaultTimeout bounds a submission when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options configures a submission.
type Options struct {
	// URL of the server, e.g. http://localhost:8080. A path, if any,
	// replaces the default /socket.io/ endpoint path.
	URL                string
	Namespace          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value *formula.ResultSet
	err   error
}

// Submit sends the batch and returns the server's result set. A batch the
// server rejects comes back as a *formula.Error of the same kind.
func Submit(ctx context.Context, opts Options, batch *formula.Batch) (*formula.ResultSet, error) {
	logger := ctxlog.FromContext(ctx).With("remote", opts.URL)
	logger.Debug("Remote submission started.")
	defer logger.Debug("Remote submission finished.")

	req, err := api.NewExecuteRequest(batch)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: scheme and host are required", opts.URL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	sockOpts := socket.DefaultOptions()
	if p := strings.TrimSuffix(parsedURL.Path, "/"); p != "" {
		sockOpts.SetPath(p)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, sockOpts)
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}
	io := manager.Socket(namespace, sockOpts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	finish := func(res opResult) {
		select {
		case done <- res:
		default:
		}
	}

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Connected, submitting batch.", "sid", io.Id())
		io.Emit(server.EventExecute, string(payload))
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("socket.io connection failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("socket.io connection failed: %w", e)
			}
		}
		finish(opResult{err: err})
	})

	io.On(types.EventName(server.EventResult), func(data ...any) {
		var resp api.ExecuteResponse
		if err := decodeEvent(data, &resp); err != nil {
			finish(opResult{err: err})
			return
		}
		if resp.Results == nil {
			resp.Results = formula.NewResultSet()
		}
		finish(opResult{value: resp.Results})
	})

	io.On(types.EventName(server.EventError), func(data ...any) {
		var resp api.ErrorResponse
		if err := decodeEvent(data, &resp); err != nil {
			finish(opResult{err: err})
			return
		}
		finish(opResult{err: resp.Err()})
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for event '%s'", server.EventResult)
		}
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		return res.value, res.err
	}
}

// decodeEvent unmarshals the first event argument, which the server sends
// as JSON text.
func decodeEvent(data []any, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty response from server")
	}
	var raw []byte
	switch d := data[0].(type) {
	case string:
		raw = []byte(d)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("decoding server response: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding server response: %w", err)
	}
	return nil
}
