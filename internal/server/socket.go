package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/zishang520/socket.io/v2/socket"

	"github.com/vk/formulagrid/internal/api"
	"github.com/vk/formulagrid/internal/ctxlog"
)

func (s *Server) onConnection(clients ...any) {
	client, ok := clients[0].(*socket.Socket)
	if !ok {
		return
	}
	ctx := ctxlog.WithLogger(s.ctx, ctxlog.FromContext(s.ctx).With("sid", string(client.Id())))
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Socket client connected.")

	client.On(EventExecute, func(args ...any) {
		var payload any
		if len(args) > 0 {
			payload = args[0]
		}

		req, err := decodePayload(payload)
		if err != nil {
			_, body := api.Failure(err)
			emitJSON(client, EventError, body)
			return
		}

		status, body := s.Execute(ctx, req)
		if status == http.StatusOK {
			emitJSON(client, EventResult, body)
			return
		}
		emitJSON(client, EventError, body)
	})

	client.On("disconnect", func(...any) {
		logger.Debug("Socket client disconnected.")
	})
}

// decodePayload accepts the request either as JSON text or as the already
// decoded object.
func decodePayload(payload any) (*api.ExecuteRequest, error) {
	switch p := payload.(type) {
	case string:
		return api.DecodeRequest(strings.NewReader(p))
	case nil:
		return api.DecodeRequest(strings.NewReader(""))
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encoding socket payload: %w", err)
		}
		return api.DecodeRequest(strings.NewReader(string(raw)))
	}
}

func emitJSON(client *socket.Socket, event string, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		raw = []byte(`{"detail":"internal error"}`)
		event = EventError
	}
	client.Emit(event, string(raw))
}
