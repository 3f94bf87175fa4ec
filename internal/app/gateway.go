package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/expr"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"github.com/specialistvlad/sparsegrid/internal/search"
	"github.com/specialistvlad/sparsegrid/internal/telemetry"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"github.com/zishang520/socket.io/v2/socket"
)

// Gateway events. Every request is answered with one EventResult emission
// carrying a Response.
const (
	EventRead    = "read"
	EventText    = "text"
	EventWrite   = "write"
	EventInsert  = "insert"
	EventRemove  = "remove"
	EventSpread  = "spread"
	EventFind    = "find"
	EventUndo    = "undo"
	EventRedo    = "redo"
	EventMacro   = "macro"
	EventGlobals = "globals"
	EventSave    = "save"

	EventResult = "result"
)

// GatewayEvents lists the request events the gateway answers.
var GatewayEvents = []string{
	EventRead, EventText, EventWrite, EventInsert, EventRemove,
	EventSpread, EventFind, EventUndo, EventRedo, EventMacro,
	EventGlobals, EventSave,
}

// Request is the payload of a gateway event. Which fields are used depends on
// the event.
type Request struct {
	// Key is "row,col,tab"; read and text also accept slices such as
	// "0:3,0,0".
	Key     string          `json:"key"`
	Text    string          `json:"text"`
	Axis    string          `json:"axis" validate:"omitempty,oneof=row column table"`
	Pos     int             `json:"pos" validate:"gte=0"`
	Count   int             `json:"count" validate:"gte=0"`
	Value   json.RawMessage `json:"value"`
	Pattern string          `json:"pattern"`
	Flags   []string        `json:"flags"`
}

// Response answers a Request.
type Response struct {
	Event  string `json:"event"`
	OK     bool   `json:"ok"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
	Count  int    `json:"count,omitempty"`
	Error  string `json:"error,omitempty"`
	GridID string `json:"grid_id"`
}

var requestValidate = validator.New()

var errMissingKey = errors.New("key is required")

// Gateway exposes the sheet to socket.io clients.
type Gateway struct {
	sheet *Sheet
}

// NewGateway creates a gateway serving sheet.
func NewGateway(sheet *Sheet) *Gateway {
	return &Gateway{sheet: sheet}
}

// Attach registers the gateway's handlers on every connection of server.
func (gw *Gateway) Attach(ctx context.Context, server *socket.Server) {
	logger := ctxlog.FromContext(ctx)
	server.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		telemetry.GatewayClients.Inc()
		logger.Debug("Gateway client connected.", "sid", string(client.Id()))

		client.On("disconnect", func(reason ...any) {
			telemetry.GatewayClients.Dec()
			logger.Debug("Gateway client disconnected.", "sid", string(client.Id()), "reason", reason)
		})
		for _, event := range GatewayEvents {
			client.On(event, func(args ...any) {
				var payload any
				if len(args) > 0 {
					payload = args[0]
				}
				client.Emit(EventResult, gw.Handle(ctx, event, payload))
			})
		}
	})
}

// Handle answers one request. payload is the decoded JSON sent by the
// client.
func (gw *Gateway) Handle(ctx context.Context, event string, payload any) Response {
	var resp Response
	err := gw.sheet.Do(func(g *grid.Grid) error {
		resp.GridID = g.ID().String()
		req, err := decodeRequest(payload)
		if err != nil {
			return err
		}
		return gw.dispatch(ctx, g, event, req, &resp)
	})

	resp.Event = event
	resp.OK = err == nil
	status := "ok"
	if err != nil {
		resp.Error = err.Error()
		status = "error"
		ctxlog.FromContext(ctx).Debug("Gateway request failed.", "event", event, "error", err)
	}
	telemetry.GatewayRequests.WithLabelValues(event, status).Inc()
	return resp
}

func decodeRequest(payload any) (Request, error) {
	var req Request
	if payload == nil {
		return req, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("encoding payload: %w", err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decoding payload: %w", err)
	}
	if err := requestValidate.Struct(req); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

func (gw *Gateway) dispatch(ctx context.Context, g *grid.Grid, event string, req Request, resp *Response) error {
	switch event {
	case EventRead:
		if req.Key == "" {
			return errMissingKey
		}
		key, err := coord.ParseKey(req.Key)
		if err != nil {
			return err
		}
		v, err := g.ReadKey(ctx, key)
		if err != nil {
			return err
		}
		resp.Key = key.String()
		if v.IsRange() {
			tuple, err := v.Block.Value()
			if err != nil {
				return err
			}
			resp.Value = expr.Text(tuple)
			resp.Count = v.Block.Len()
			return nil
		}
		resp.Value = expr.Text(v.Scalar)
		return nil

	case EventText:
		if req.Key == "" {
			return errMissingKey
		}
		key, err := coord.ParseKey(req.Key)
		if err != nil {
			return err
		}
		v, n, err := g.TextKey(key)
		if err != nil {
			return err
		}
		resp.Key, resp.Value = key.String(), expr.Text(v)
		if !key.IsSingle() {
			resp.Count = n
		}
		return nil

	case EventWrite:
		c, err := requireCoordinate(req)
		if err != nil {
			return err
		}
		resp.Key = c.String()
		return g.Write(ctx, c, req.Text)

	case EventInsert, EventRemove:
		sel, err := axisSelector(req)
		if err != nil {
			return err
		}
		count := max(req.Count, 1)
		resp.Count = count
		if event == EventInsert {
			return g.Insert(ctx, sel, count)
		}
		return g.Remove(ctx, sel, count)

	case EventSpread:
		c, err := requireCoordinate(req)
		if err != nil {
			return err
		}
		v, err := jsonValue(req.Value)
		if err != nil {
			return err
		}
		resp.Key = c.String()
		resp.Count, err = g.Spread(ctx, v, c)
		return err

	case EventFind:
		start := coord.Coordinate{}
		if req.Key != "" {
			c, err := coord.ParseCoordinate(req.Key)
			if err != nil {
				return err
			}
			start = c
		}
		flags := req.Flags
		if len(flags) == 0 {
			flags = []string{"DOWN"}
		}
		opts, err := search.ParseFlags(flags)
		if err != nil {
			return err
		}
		found, ok, err := g.FindNextMatch(start, req.Pattern, opts)
		if err != nil {
			return err
		}
		if ok {
			resp.Key, resp.Value = found.String(), g.Text(found)
		}
		return nil

	case EventUndo:
		return g.Undo(ctx)

	case EventRedo:
		return g.Redo(ctx)

	case EventMacro:
		name, added, err := g.AddMacro(ctx, req.Text)
		if err != nil {
			return err
		}
		if !added {
			return fmt.Errorf("macro %q already exists", name)
		}
		resp.Value = name
		return nil

	case EventGlobals:
		if req.Text == "" {
			names := g.GlobalNames()
			resp.Value, resp.Count = strings.Join(names, ","), len(names)
			return nil
		}
		v, ok := g.Global(req.Text)
		if !ok {
			return fmt.Errorf("global %q is not bound", req.Text)
		}
		resp.Key, resp.Value = req.Text, expr.Text(v)
		return nil

	case EventSave:
		resp.Value = gw.sheet.Path()
		return gw.sheet.save(ctx, g)
	}
	return fmt.Errorf("unknown event %q", event)
}

func requireCoordinate(req Request) (coord.Coordinate, error) {
	if req.Key == "" {
		return coord.Coordinate{}, errMissingKey
	}
	return coord.ParseCoordinate(req.Key)
}

func axisSelector(req Request) (coord.AxisSelector, error) {
	for _, a := range coord.Axes {
		if a.String() == req.Axis {
			return coord.AxisSelector{Axis: a, Pos: req.Pos}, nil
		}
	}
	return coord.AxisSelector{}, fmt.Errorf("%w: axis must be row, column or table, got %q", coord.ErrBounds, req.Axis)
}

// jsonValue converts a JSON document into the value Spread writes.
func jsonValue(raw json.RawMessage) (cty.Value, error) {
	if len(raw) == 0 {
		return cty.NilVal, fmt.Errorf("value is required")
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, fmt.Errorf("invalid value: %w", err)
	}
	v, err := ctyjson.Unmarshal(raw, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("invalid value: %w", err)
	}
	return v, nil
}
