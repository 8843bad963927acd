package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LexiconIndonesia/data-miner-service/common/config"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// NatsClient represents a NATS client
type NatsClient struct {
	conn        *nats.Conn
	js          jetstream.JetStream
	config      config.Config
	subscribers map[string]*nats.Subscription
	mu          sync.Mutex
}

// NewNatsClient creates a new NATS client
func NewNatsClient(config config.Config) (*NatsClient, error) {
	client := &NatsClient{
		config:      config,
		subscribers: make(map[string]*nats.Subscription),
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

// connect connects to the NATS server
func (c *NatsClient) connect() error {
	var err error

	opts := []nats.Option{
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("server", nc.ConnectedUrl()).Msg("Reconnected to NATS")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).
				Str("subject", sub.Subject).
				Msg("Error handling NATS message")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	if c.config.Nats.Username != "" && c.config.Nats.Password != "" {
		opts = append(opts, nats.UserInfo(c.config.Nats.Username, c.config.Nats.Password))
	}

	c.conn, err = nats.Connect(c.config.Nats.URL(), opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(c.conn)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	c.js = js

	log.Info().Str("server", c.conn.ConnectedUrl()).Msg("Connected to NATS")
	return nil
}

// Close closes the NATS connection
func (c *NatsClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Drain the connection (gracefully unsubscribe)
	if c.conn != nil && c.conn.IsConnected() {
		return c.conn.Drain()
	}
	return nil
}

// Publish publishes a message to a subject
func (c *NatsClient) Publish(subject string, data []byte) error {
	if c.conn == nil || !c.conn.IsConnected() {
		return fmt.Errorf("not connected to NATS")
	}

	return c.conn.Publish(subject, data)
}

// PublishAsync publishes a message to a subject via JetStream
func (c *NatsClient) PublishAsync(subject string, data []byte) (jetstream.PubAckFuture, error) {
	if c.js == nil {
		return nil, fmt.Errorf("JetStream not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ack, err := c.js.PublishAsync(subject, data)
	if err != nil {
		return nil, fmt.Errorf("failed to publish message to %s: %w", subject, err)
	}

	go func() {
		select {
		case pubAck := <-ack.Ok():
			if pubAck != nil {
				log.Debug().Str("subject", subject).
					Str("stream", pubAck.Stream).
					Uint64("seq", pubAck.Sequence).
					Msg("Message acknowledged")
			}
		case err := <-ack.Err():
			if err != nil {
				log.Error().Str("error", err.Error()).
					Str("subject", subject).
					Msg("Error publishing message")
			}
		case <-ctx.Done():
			log.Warn().Str("subject", subject).
				Msg("Timeout waiting for message acknowledgement")
		}
	}()

	return ack, nil
}

// Subscribe subscribes to a subject
func (c *NatsClient) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || !c.conn.IsConnected() {
		return nil, fmt.Errorf("not connected to NATS")
	}

	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.subscribers[subject] = sub
	log.Info().Str("subject", subject).Msg("Subscribed to NATS subject")
	return sub, nil
}

// QueueSubscribe subscribes to a subject with a queue group
func (c *NatsClient) QueueSubscribe(subject, queue string, handler nats.MsgHandler) (*nats.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || !c.conn.IsConnected() {
		return nil, fmt.Errorf("not connected to NATS")
	}

	sub, err := c.conn.QueueSubscribe(subject, queue, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to queue subscribe to %s: %w", subject, err)
	}

	c.subscribers[subject+":"+queue] = sub
	log.Info().Str("subject", subject).Str("queue", queue).Msg("Subscribed to NATS queue")
	return sub, nil
}

// CreateStream creates a JetStream stream
func (c *NatsClient) CreateStream(ctx context.Context, config jetstream.StreamConfig) (jetstream.Stream, error) {
	if c.js == nil {
		return nil, fmt.Errorf("JetStream not initialized")
	}

	stream, err := c.js.CreateOrUpdateStream(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	log.Info().
		Str("name", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Msg("Created JetStream stream")

	return stream, nil
}

// GetJetStream returns the JetStream context
func (c *NatsClient) GetJetStream() jetstream.JetStream {
	return c.js
}

// GetConn returns the NATS connection
func (c *NatsClient) GetConn() *nats.Conn {
	return c.conn
}

// SetupNatsClient initializes the NATS client
func SetupNatsClient(cfg config.Config) (*NatsClient, error) {
	client, err := NewNatsClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating NATS client: %w", err)
	}

	return client, nil
}

// PublishJobRun dispatches a mining job to the worker queue group.
func (c *NatsClient) PublishJobRun(jobID string) error {
	data, err := JobRunMessage{JobID: jobID}.Marshal()
	if err != nil {
		return err
	}
	return c.Publish(SubjectJobRun, data)
}

// PublishJobCancel fans a cancel request out to every instance.
func (c *NatsClient) PublishJobCancel(jobID string, deleteAfter bool) error {
	data, err := JobCancelMessage{JobID: jobID, Delete: deleteAfter}.Marshal()
	if err != nil {
		return err
	}
	return c.Publish(SubjectJobCancel, data)
}
