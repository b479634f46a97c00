package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"stockforecast/internal/logger"
)

// Websocket message types.
const (
	MsgPredict  = "PREDICT"
	MsgForecast = "FORECAST"
	MsgPing     = "PING"
	MsgPong     = "PONG"
	MsgError    = "ERROR"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	predictTimeout = 30 * time.Second
	maxMessageSize = 4096
)

// PredictMsg asks for a forecast. ID is echoed back; a random one is
// assigned when empty.
type PredictMsg struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Range  string `json:"range"`
}

// ForecastMsg answers a PredictMsg.
type ForecastMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	*ForecastOut
}

// ErrorMsg reports a failed request.
type ErrorMsg struct {
	Type    string            `json:"type"`
	ID      string            `json:"id,omitempty"`
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

// Client is a single websocket peer.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	// ctx is cancelled when the client is removed; writers check it before
	// queueing so send is never closed under them.
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *Client) enqueue(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.hub.server.log.Error("ws marshal failed", slog.String("error", err.Error()))
		return
	}
	select {
	case <-c.ctx.Done():
	case c.send <- data:
	default:
		c.hub.server.log.Warn("ws send buffer full, dropping message", slog.String("client", c.id))
	}
}

func (c *Client) sendError(id, msg string, details []ValidationError) {
	c.enqueue(ErrorMsg{Type: MsgError, ID: id, Error: msg, Details: details})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.remove(c)
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer c.hub.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var base struct {
			Type string `json:"type"`
			ID   string `json:"id"`
			Ping int64  `json:"ping"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			c.sendError("", "invalid JSON: "+err.Error(), nil)
			continue
		}

		switch strings.ToUpper(base.Type) {
		case MsgPredict:
			var pm PredictMsg
			if err := json.Unmarshal(msg, &pm); err != nil {
				c.sendError(base.ID, "invalid PREDICT: "+err.Error(), nil)
				continue
			}
			go c.handlePredict(pm)

		case MsgPing:
			c.enqueue(map[string]any{
				"type":      MsgPong,
				"ping":      base.Ping,
				"server_ts": time.Now().UnixMilli(),
			})

		default:
			c.sendError(base.ID, "unknown message type "+quoted(base.Type), nil)
		}
	}
}

func (c *Client) handlePredict(msg PredictMsg) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(logger.WithTraceID(c.ctx, msg.ID), predictTimeout)
	defer cancel()

	req := forecastRequest{Symbol: msg.Symbol, Range: strings.ToUpper(msg.Range)}
	if verrs := bind(ctx, &req); verrs != nil {
		c.sendError(msg.ID, "invalid request", verrs)
		return
	}

	out, err := c.hub.server.forecast(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) && c.ctx.Err() != nil {
			return
		}
		c.sendError(msg.ID, err.Error(), nil)
		return
	}
	c.enqueue(ForecastMsg{Type: MsgForecast, ID: msg.ID, ForecastOut: out})
}

func quoted(s string) string {
	if s == "" {
		return `""`
	}
	return s
}
