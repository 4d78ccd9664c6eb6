package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/AaronLay10/mapcolor/internal/coloring"
	"github.com/AaronLay10/mapcolor/internal/events"
	"github.com/AaronLay10/mapcolor/internal/solver"
)

// Transport is the part of Client the bridge needs.
type Transport interface {
	Subscribe(topic string, handler paho.MessageHandler) error
	Publish(topic string, payload []byte) error
}

// BridgeRequest is the payload expected on <prefix>/solve/request.
type BridgeRequest struct {
	RequestID string               `json:"request_id"`
	ReplyTo   string               `json:"reply_to,omitempty"`
	Graph     *solver.SolveRequest `json:"graph"`
}

// BridgeResponse is published for every request. It carries either the
// search result (success and steps) or an error.
type BridgeResponse struct {
	RequestID string `json:"request_id"`
	*coloring.Result
	Error string `json:"error,omitempty"`
}

// Bridge answers coloring requests arriving over MQTT.
type Bridge struct {
	transport Transport
	solver    *solver.Service
	prefix    string

	mu  sync.RWMutex
	ctx context.Context
}

// NewBridge creates a bridge publishing under topic prefix.
func NewBridge(transport Transport, svc *solver.Service, prefix string) *Bridge {
	return &Bridge{
		transport: transport,
		solver:    svc,
		prefix:    prefix,
		ctx:       context.Background(),
	}
}

// RequestTopic is where requests are read from.
func (b *Bridge) RequestTopic() string {
	return b.prefix + "/solve/request"
}

// ResultTopic is where the answer to requestID goes when no reply_to is given.
func (b *Bridge) ResultTopic(requestID string) string {
	return b.prefix + "/solve/result/" + requestID
}

// Subscribe (re)subscribes to the request topic.
func (b *Bridge) Subscribe() error {
	if err := b.transport.Subscribe(b.RequestTopic(), b.onMessage); err != nil {
		events.Emit("error", "bridge.error", "failed to subscribe", map[string]interface{}{
			"topic": b.RequestTopic(),
			"error": err.Error(),
		})
		return err
	}

	events.Emit("info", "bridge.connected", "", map[string]interface{}{
		"topic": b.RequestTopic(),
	})
	return nil
}

// Run serves requests until ctx is cancelled. Searches started by the bridge
// are cancelled with ctx. A failed initial subscribe is not fatal: the
// client's OnConnect hook calls Subscribe again once the broker is reachable.
func (b *Bridge) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	if err := b.Subscribe(); err != nil {
		log.Printf("mqtt: initial subscribe failed, waiting for reconnect: %v", err)
	}

	<-ctx.Done()
	events.Emit("info", "bridge.disconnected", "shutting down", nil)
	return nil
}

func (b *Bridge) onMessage(_ paho.Client, msg paho.Message) {
	b.Handle(msg.Payload())
}

// Handle processes one request payload and publishes the response.
func (b *Bridge) Handle(payload []byte) {
	var req BridgeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		events.Emit("warning", "bridge.error", "invalid request JSON", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	topic := req.ReplyTo
	if topic == "" {
		topic = b.ResultTopic(req.RequestID)
	}

	events.Emit("info", "bridge.request", "", map[string]interface{}{
		"request_id": req.RequestID,
		"reply_to":   topic,
	})

	b.mu.RLock()
	ctx := b.ctx
	b.mu.RUnlock()

	resp := BridgeResponse{RequestID: req.RequestID}
	res, err := b.solver.Solve(ctx, req.RequestID, solver.SourceMQTT, req.Graph)
	switch {
	case err == nil:
		resp.Result = &res
	case errors.Is(err, coloring.ErrStepLimitExceeded):
		resp.Error = "step limit exceeded"
	default:
		resp.Error = err.Error()
	}

	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("mqtt: failed to marshal response %s: %v", req.RequestID, err)
		return
	}

	if err := b.transport.Publish(topic, data); err != nil {
		events.Emit("error", "bridge.error", "failed to publish result", map[string]interface{}{
			"request_id": req.RequestID,
			"topic":      topic,
			"error":      err.Error(),
		})
	}
}
