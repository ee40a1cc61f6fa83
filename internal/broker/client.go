package broker

import (
	"context"
	"sync"

	uierrors "github.com/Aman-CERP/uiground/internal/errors"
)

// BroadcastFunc observes broadcasts received by a client.
type BroadcastFunc func(msg Message)

// Client is the consumer-side proxy. It correlates responses to requests
// through a pending table, so concurrent callers each suspend only on
// their own request, and it keeps a local cache of the coordinator's
// readiness and progress updated from broadcasts.
type Client struct {
	conn    *Conn
	private *Coordinator // non-nil when this client fell back to a private coordinator

	mu          sync.Mutex
	pending     map[string]chan Message
	ready       bool
	progress    int
	onBroadcast BroadcastFunc
	closed      bool

	recvDone chan struct{}
}

// NewClient connects to the shared coordinator. If shared is nil (the
// shared mechanism is unavailable on this host) or forcePrivate is set,
// the client falls back to a private, single-consumer coordinator wrapping
// the given provider.
func NewClient(shared *Coordinator, provider Provider, forcePrivate bool) (*Client, error) {
	c := &Client{
		pending:  make(map[string]chan Message),
		recvDone: make(chan struct{}),
	}

	coord := shared
	if coord == nil || forcePrivate {
		if provider == nil {
			return nil, uierrors.Newf(uierrors.ErrCodeInvalidInput,
				"no shared coordinator and no provider for private fallback")
		}
		c.private = NewCoordinator(provider)
		coord = c.private
	}

	conn := coord.Connect()
	if conn == nil {
		if c.private != nil {
			c.private.Close()
		}
		return nil, uierrors.Newf(uierrors.ErrCodeClientClosed, "coordinator is shut down")
	}
	c.conn = conn

	go c.recvLoop()
	return c, nil
}

// OnBroadcast registers a callback invoked for every broadcast the client
// receives. Broadcasts never resolve pending requests.
func (c *Client) OnBroadcast(fn BroadcastFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onBroadcast = fn
}

// Ready returns the last readiness observed from responses or broadcasts.
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Progress returns the last load progress percentage observed.
func (c *Client) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Init asks the coordinator to load the provider, suspending until the
// (possibly already completed) load finishes.
func (c *Client) Init(ctx context.Context) error {
	resp, err := c.request(ctx, Message{Kind: KindInit})
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return uierrors.Newf(uierrors.ErrCodeModelLoadFailed, "%s", resp.Error)
	}
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	return nil
}

// Embed requests embeddings for texts. It fails if the coordinator is not
// ready; callers are expected to Init first.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.request(ctx, Message{Kind: KindEmbed, Texts: texts})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, uierrors.Newf(uierrors.ErrCodeEmbeddingFailed, "%s", resp.Error)
	}
	return resp.Vectors, nil
}

// Status fetches the coordinator's current status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	resp, err := c.request(ctx, Message{Kind: KindStatus})
	if err != nil {
		return Status{}, err
	}
	if resp.Status == nil {
		return Status{}, uierrors.Newf(uierrors.ErrCodeInternal, "status response without payload")
	}
	return *resp.Status, nil
}

// Close disconnects from the coordinator and, for a private fallback,
// shuts the private coordinator down. Pending requests fail.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	// Best effort: the coordinator may already be gone.
	_ = c.conn.Send(Message{ID: NewCorrelationID(), Kind: KindDisconnect})
	<-c.recvDone

	if c.private != nil {
		c.private.Close()
	}
	return nil
}

// request sends one request and suspends the caller until the matching
// response arrives. Other in-flight requests are unaffected.
func (c *Client) request(ctx context.Context, msg Message) (Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Message{}, uierrors.Newf(uierrors.ErrCodeClientClosed, "client is closed")
	}
	msg.ID = NewCorrelationID()
	ch := make(chan Message, 1)
	c.pending[msg.ID] = ch
	c.mu.Unlock()

	if err := c.conn.Send(msg); err != nil {
		c.dropPending(msg.ID)
		return Message{}, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return Message{}, uierrors.Newf(uierrors.ErrCodeClientClosed, "connection closed")
		}
		return resp, nil
	case <-ctx.Done():
		// The protocol has no cancellation: the request stays in flight
		// and its eventual response is disregarded.
		c.dropPending(msg.ID)
		return Message{}, ctx.Err()
	}
}

func (c *Client) dropPending(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// recvLoop routes inbound messages: broadcasts update the cached state and
// fire the callback; responses resolve exactly the pending request whose
// correlation id they echo.
func (c *Client) recvLoop() {
	defer close(c.recvDone)
	for msg := range c.conn.Recv() {
		if msg.Kind.IsBroadcast() && msg.ID == "" {
			c.handleBroadcast(msg)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		if ok {
			delete(c.pending, msg.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}

	// Connection closed: fail whatever is still pending.
	c.mu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.closed = true
	c.mu.Unlock()
}

func (c *Client) handleBroadcast(msg Message) {
	c.mu.Lock()
	switch msg.Kind {
	case KindProgress:
		c.progress = msg.Progress
	case KindReady:
		c.ready = true
		c.progress = 100
	case KindError:
		c.ready = false
	}
	fn := c.onBroadcast
	c.mu.Unlock()

	if fn != nil {
		fn(msg)
	}
}
