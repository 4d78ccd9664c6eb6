package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/mapcolor/internal/coloring"
	"github.com/AaronLay10/mapcolor/internal/config"
	"github.com/AaronLay10/mapcolor/internal/events"
	"github.com/AaronLay10/mapcolor/internal/solver"
)

// mockTransport records subscriptions and publishes.
type mockTransport struct {
	mu            sync.Mutex
	subscriptions map[string]paho.MessageHandler
	published     map[string][]byte
	subscribeErr  error
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		subscriptions: make(map[string]paho.MessageHandler),
		published:     make(map[string][]byte),
	}
}

func (m *mockTransport) Subscribe(topic string, handler paho.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.subscriptions[topic] = handler
	return nil
}

func (m *mockTransport) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[topic] = payload
	return nil
}

func (m *mockTransport) simulate(topic string, payload []byte) {
	m.mu.Lock()
	handler, ok := m.subscriptions[topic]
	m.mu.Unlock()
	if ok {
		handler(nil, &mockMessage{topic: topic, payload: payload})
	}
}

func (m *mockTransport) response(t *testing.T, topic string) BridgeResponse {
	t.Helper()
	m.mu.Lock()
	data, ok := m.published[topic]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("nothing published to %s", topic)
	}
	var resp BridgeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 1 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 0 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}

func newTestBridge(limits config.SolverConfig) (*Bridge, *mockTransport) {
	transport := newMockTransport()
	return NewBridge(transport, solver.New(limits), "test"), transport
}

func TestBridgeTopics(t *testing.T) {
	b, _ := newTestBridge(config.SolverConfig{})

	if b.RequestTopic() != "test/solve/request" {
		t.Errorf("unexpected request topic %q", b.RequestTopic())
	}
	if b.ResultTopic("abc") != "test/solve/result/abc" {
		t.Errorf("unexpected result topic %q", b.ResultTopic("abc"))
	}
}

func TestBridgeSolvesRequest(t *testing.T) {
	events.Clear()
	b, transport := newTestBridge(config.SolverConfig{})
	if err := b.Subscribe(); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	transport.simulate("test/solve/request", []byte(`{
		"request_id": "r1",
		"graph": {"nodes": ["A"], "edges": [], "num_colors": 1}
	}`))

	resp := transport.response(t, "test/solve/result/r1")
	if resp.RequestID != "r1" || resp.Error != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Result == nil || !resp.Success || len(resp.Steps) != 2 {
		t.Fatalf("unexpected result: %+v", resp.Result)
	}
	if resp.Steps[1].Action != coloring.ActionAssign {
		t.Errorf("expected assign step, got %s", resp.Steps[1].Action)
	}
}

func TestBridgeFailedSearchKeepsSuccessField(t *testing.T) {
	b, transport := newTestBridge(config.SolverConfig{})

	b.Handle([]byte(`{
		"request_id": "r2",
		"reply_to": "replies/r2",
		"graph": {"nodes": ["A", "B"], "edges": [{"source": "A", "target": "B"}], "num_colors": 1}
	}`))

	transport.mu.Lock()
	raw := string(transport.published["replies/r2"])
	transport.mu.Unlock()

	var generic map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if generic["success"] != false {
		t.Errorf("expected success=false in %s", raw)
	}
	if _, ok := generic["error"]; ok {
		t.Errorf("unexpected error field in %s", raw)
	}
}

func TestBridgeReportsInvalidRequest(t *testing.T) {
	b, transport := newTestBridge(config.SolverConfig{})

	b.Handle([]byte(`{"request_id": "r3", "graph": {"nodes": ["A"]}}`))

	resp := transport.response(t, "test/solve/result/r3")
	if resp.Error == "" || resp.Result != nil {
		t.Errorf("expected error-only response, got %+v", resp)
	}
}

func TestBridgeReportsStepLimit(t *testing.T) {
	b, transport := newTestBridge(config.SolverConfig{MaxSteps: 1})

	b.Handle([]byte(`{"request_id": "r4", "graph": {"nodes": ["A", "B"], "edges": [], "num_colors": 1}}`))

	resp := transport.response(t, "test/solve/result/r4")
	if resp.Error != "step limit exceeded" {
		t.Errorf("expected step limit error, got %+v", resp)
	}
}

func TestBridgeGeneratesRequestID(t *testing.T) {
	b, transport := newTestBridge(config.SolverConfig{})

	b.Handle([]byte(`{"graph": {"nodes": [], "edges": [], "num_colors": 1}}`))

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(transport.published))
	}
	for topic, data := range transport.published {
		var resp BridgeResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if resp.RequestID == "" || topic != b.ResultTopic(resp.RequestID) {
			t.Errorf("request id %q not reflected in topic %q", resp.RequestID, topic)
		}
	}
}

func TestBridgeIgnoresMalformedJSON(t *testing.T) {
	events.Clear()
	b, transport := newTestBridge(config.SolverConfig{})

	b.Handle([]byte(`{not json`))

	if len(transport.published) != 0 {
		t.Error("expected nothing published for malformed payload")
	}
	recent := events.RecentEvents(1)
	if len(recent) != 1 || recent[0].Name != "bridge.error" {
		t.Errorf("expected bridge.error event, got %+v", recent)
	}
}

func TestBridgeSubscribeError(t *testing.T) {
	b, transport := newTestBridge(config.SolverConfig{})
	transport.subscribeErr = errors.New("boom")

	if err := b.Subscribe(); err == nil {
		t.Error("expected subscribe error")
	}
}

func TestTimeoutErrors(t *testing.T) {
	var err error = &PublishTimeoutError{Topic: "x"}
	if err.Error() != "mqtt publish timeout: x" {
		t.Errorf("unexpected message %q", err.Error())
	}
	err = &SubscribeTimeoutError{Topic: "y"}
	if err.Error() != "mqtt subscribe timeout: y" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestBridgeRunSurvivesSubscribeError(t *testing.T) {
	b, transport := newTestBridge(config.SolverConfig{})
	transport.subscribeErr = errors.New("broker down")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
