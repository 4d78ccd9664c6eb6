package mqtt

import (
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Client wraps the Paho MQTT client.
type Client struct {
	client    paho.Client
	brokerURL string
	mu        sync.Mutex

	hookMu    sync.RWMutex
	onConnect []func()
	onLost    []func(error)
}

// NewClient creates a new MQTT client but does not connect.
func NewClient(clientID, brokerURL string) *Client {
	c := &Client{brokerURL: brokerURL}

	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second).
		// Handlers publish and wait for the ack; with ordered delivery that
		// wait would stall the router that processes the ack.
		SetOrderMatters(false).
		SetOnConnectHandler(func(paho.Client) { c.fireConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { c.fireLost(err) })

	c.client = paho.NewClient(opts)
	return c
}

// BrokerURL returns the broker this client talks to.
func (c *Client) BrokerURL() string {
	return c.brokerURL
}

// OnConnect registers fn to run after every successful (re)connect.
// Subscriptions are not kept across reconnects, so subscribers re-subscribe here.
func (c *Client) OnConnect(fn func()) {
	c.hookMu.Lock()
	c.onConnect = append(c.onConnect, fn)
	c.hookMu.Unlock()
}

// OnConnectionLost registers fn to run when the broker connection drops.
func (c *Client) OnConnectionLost(fn func(error)) {
	c.hookMu.Lock()
	c.onLost = append(c.onLost, fn)
	c.hookMu.Unlock()
}

func (c *Client) fireConnect() {
	c.hookMu.RLock()
	hooks := append([]func(){}, c.onConnect...)
	c.hookMu.RUnlock()
	for _, fn := range hooks {
		go fn()
	}
}

func (c *Client) fireLost(err error) {
	log.Printf("mqtt: connection to %s lost: %v", c.brokerURL, err)
	c.hookMu.RLock()
	hooks := append([]func(error){}, c.onLost...)
	c.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(err)
	}
}

// Connect attempts to connect to the broker.
// Returns an error if connection fails, but does not block indefinitely.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return &ConnectTimeoutError{}
	}
	return token.Error()
}

// Subscribe subscribes to a topic with the given handler.
func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(10 * time.Second) {
		return &SubscribeTimeoutError{Topic: topic}
	}
	return token.Error()
}

// Publish sends payload to topic with QoS 1.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return &PublishTimeoutError{Topic: topic}
	}
	return token.Error()
}

// Disconnect cleanly disconnects from the broker.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.client.Disconnect(1000)
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// ConnectTimeoutError indicates connection timed out.
type ConnectTimeoutError struct{}

func (e *ConnectTimeoutError) Error() string {
	return "mqtt connect timeout"
}

// SubscribeTimeoutError indicates subscription timed out.
type SubscribeTimeoutError struct {
	Topic string
}

func (e *SubscribeTimeoutError) Error() string {
	return "mqtt subscribe timeout: " + e.Topic
}

// PublishTimeoutError indicates a publish was not acknowledged in time.
type PublishTimeoutError struct {
	Topic string
}

func (e *PublishTimeoutError) Error() string {
	return "mqtt publish timeout: " + e.Topic
}
