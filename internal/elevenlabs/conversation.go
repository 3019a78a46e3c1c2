package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/faitholopade/codegate/internal/logx"
	"github.com/faitholopade/codegate/internal/voice"
)

// Dialer opens conversation websockets. It implements voice.Dialer.
type Dialer struct {
	ws *websocket.Dialer
	// TextOnly asks the agent for text events instead of audio.
	TextOnly bool
	log      *zap.Logger
}

// NewDialer creates a Dialer. A nil log uses the process logger.
func NewDialer(textOnly bool, log *zap.Logger) *Dialer {
	if log == nil {
		log = logx.Named("elevenlabs")
	}
	return &Dialer{
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		TextOnly: textOnly,
		log:      log,
	}
}

type initiation struct {
	Type     string   `json:"type"`
	Override override `json:"conversation_config_override"`
}

type override struct {
	Agent        agentOverride         `json:"agent"`
	Conversation *conversationOverride `json:"conversation,omitempty"`
}

type agentOverride struct {
	Prompt       promptOverride `json:"prompt"`
	FirstMessage string         `json:"first_message,omitempty"`
}

type promptOverride struct {
	Prompt string `json:"prompt"`
}

type conversationOverride struct {
	TextOnly bool `json:"text_only"`
}

// envelope is the part of every server event the transport inspects.
type envelope struct {
	Type     string `json:"type"`
	Metadata *struct {
		ConversationID string `json:"conversation_id"`
	} `json:"conversation_initiation_metadata_event"`
	Ping *struct {
		EventID int64 `json:"event_id"`
	} `json:"ping_event"`
}

// Dial connects to url, sends the initiation overrides and starts the
// reader. Events other than pings and the initiation metadata go to
// h.OnMessage.
func (d *Dialer) Dial(ctx context.Context, url string, init voice.Init, h voice.Handler) (voice.Conn, error) {
	ws, resp, err := d.ws.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("dial conversation: %w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial conversation: %w", err)
	}

	msg := initiation{
		Type: "conversation_initiation_client_data",
		Override: override{
			Agent: agentOverride{
				Prompt:       promptOverride{Prompt: init.Prompt},
				FirstMessage: init.FirstMessage,
			},
		},
	}
	if d.TextOnly {
		msg.Override.Conversation = &conversationOverride{TextOnly: true}
	}

	c := &Conversation{ws: ws, handler: h, log: d.log, done: make(chan struct{})}
	if err := c.writeJSON(msg); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("send initiation: %w", err)
	}

	go c.readLoop()
	return c, nil
}

// Conversation is one open websocket. It implements voice.Conn.
type Conversation struct {
	ws      *websocket.Conn
	handler voice.Handler
	log     *zap.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	id      string
	closing bool

	closeOnce sync.Once
	done      chan struct{}
}

// ID returns the server-assigned conversation id once known.
func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Done is closed when the reader exits.
func (c *Conversation) Done() <-chan struct{} { return c.done }

// SendText sends a typed user message.
func (c *Conversation) SendText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.writeJSON(map[string]string{"type": "user_message", "text": text})
}

// Close sends a normal closure and tears down the socket.
func (c *Conversation) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closing = true
		c.mu.Unlock()

		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *Conversation) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteJSON(v)
}

func (c *Conversation) readLoop() {
	defer close(c.done)
	defer c.handler.OnDisconnected()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closing := c.closing
			c.mu.Unlock()
			if !closing && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.handler.OnError(err)
			}
			_ = c.Close()
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Debug("ignoring non-JSON frame", zap.Error(err))
			continue
		}

		switch env.Type {
		case "conversation_initiation_metadata":
			if env.Metadata != nil {
				c.mu.Lock()
				c.id = env.Metadata.ConversationID
				c.mu.Unlock()
			}
			c.log.Debug("conversation started", zap.String("conversation", c.ID()))
			c.handler.OnConnected()
		case "ping":
			if env.Ping == nil {
				continue
			}
			if err := c.writeJSON(map[string]any{"type": "pong", "event_id": env.Ping.EventID}); err != nil {
				c.log.Debug("pong failed", zap.Error(err))
			}
		case "error":
			c.handler.OnError(errors.New(string(data)))
		default:
			c.handler.OnMessage(data)
		}
	}
}
