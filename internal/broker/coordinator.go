package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	uierrors "github.com/Aman-CERP/uiground/internal/errors"
)

// Provider is the expensive shared resource the coordinator guards: an
// embedding model that must be loaded once before it can serve.
type Provider interface {
	// Load initializes the model, reporting progress percentages along
	// the way. Called at most once per coordinator.
	Load(ctx context.Context, onProgress func(percent int)) error

	// Embed turns texts into pre-normalized vectors. Only valid after a
	// successful Load.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Ready reports whether the provider can serve embed calls.
	Ready() bool
}

// coordState is the lifecycle of the shared provider.
type coordState int

const (
	stateUninitialized coordState = iota
	stateLoading
	stateReady
	stateFailed
)

// outboundBuffer sizes each consumer's channel. Broadcasts to a consumer
// that has fallen this far behind are dropped rather than stalling the
// coordinator.
const outboundBuffer = 16

// loadGroup dedups provider loads across every coordinator in the
// process: when two coordinators wrap the same provider instance, only
// one of them drives Load and the other awaits its result. Keyed by
// provider identity.
var loadGroup singleflight.Group

// envelope pairs an inbound message with the consumer it came from.
type envelope struct {
	consumerID string
	msg        Message
}

// Conn is one consumer's duplex connection to a coordinator.
type Conn struct {
	consumerID string
	coord      *Coordinator
	inbound    <-chan Message
}

// Recv returns the channel of messages from the coordinator. The channel
// is closed when the consumer disconnects or the coordinator shuts down.
func (c *Conn) Recv() <-chan Message { return c.inbound }

// Send delivers a message to the coordinator. It fails only when the
// coordinator has shut down.
func (c *Conn) Send(msg Message) error {
	select {
	case c.coord.inbox <- envelope{consumerID: c.consumerID, msg: msg}:
		return nil
	case <-c.coord.done:
		return uierrors.Newf(uierrors.ErrCodeClientClosed, "coordinator is shut down")
	}
}

// Coordinator owns the single shared provider instance and its state
// machine. All state is confined to the run goroutine; consumers interact
// only through connections.
type Coordinator struct {
	provider Provider
	logger   *slog.Logger

	inbox     chan envelope
	connectCh chan chan *Conn
	progressC chan int
	loadDoneC chan error
	done      chan struct{}
	stopOnce  sync.Once
	stopped   chan struct{}

	// owned by run:
	state       coordState
	loadErr     error
	progress    int
	consumers   map[string]chan Message
	initWaiters []envelope
}

// NewCoordinator creates a coordinator for the provider and starts its
// goroutine. Call Close to stop it.
func NewCoordinator(provider Provider) *Coordinator {
	c := &Coordinator{
		provider:  provider,
		logger:    slog.Default(),
		inbox:     make(chan envelope),
		connectCh: make(chan chan *Conn),
		progressC: make(chan int),
		loadDoneC: make(chan error),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		consumers: make(map[string]chan Message),
	}
	go c.run()
	return c
}

// Connect attaches a new consumer and returns its connection, or nil if
// the coordinator has already shut down.
func (c *Coordinator) Connect() *Conn {
	reply := make(chan *Conn)
	select {
	case c.connectCh <- reply:
		return <-reply
	case <-c.done:
		return nil
	}
}

// Close shuts the coordinator down, closing every consumer channel.
func (c *Coordinator) Close() {
	c.stopOnce.Do(func() { close(c.done) })
	<-c.stopped
}

func (c *Coordinator) run() {
	defer close(c.stopped)
	for {
		select {
		case <-c.done:
			for id, ch := range c.consumers {
				close(ch)
				delete(c.consumers, id)
			}
			return

		case reply := <-c.connectCh:
			id := uuid.NewString()
			ch := make(chan Message, outboundBuffer)
			c.consumers[id] = ch
			reply <- &Conn{consumerID: id, coord: c, inbound: ch}

		case percent := <-c.progressC:
			c.progress = percent
			c.broadcast(Message{Kind: KindProgress, Progress: percent})

		case err := <-c.loadDoneC:
			c.finishLoad(err)

		case env := <-c.inbox:
			c.handle(env)
		}
	}
}

func (c *Coordinator) handle(env envelope) {
	switch env.msg.Kind {
	case KindInit:
		c.handleInit(env)
	case KindEmbed:
		c.handleEmbed(env)
	case KindStatus:
		c.reply(env, Message{Kind: KindStatusResult, Status: c.status()})
	case KindDisconnect:
		c.reply(env, Message{Kind: KindDisconnectResult})
		if ch, ok := c.consumers[env.consumerID]; ok {
			close(ch)
			delete(c.consumers, env.consumerID)
		}
	default:
		c.reply(env, Message{Kind: KindError, Error: "unknown request kind: " + string(env.msg.Kind)})
	}
}

// handleInit drives the Uninitialized -> Loading -> Ready|Failed machine.
// Every init received while Loading awaits the same in-flight load.
func (c *Coordinator) handleInit(env envelope) {
	switch c.state {
	case stateReady:
		c.reply(env, Message{Kind: KindInitResult})
	case stateFailed:
		c.reply(env, Message{Kind: KindInitResult, Error: c.loadErr.Error()})
	case stateLoading:
		c.initWaiters = append(c.initWaiters, env)
	case stateUninitialized:
		c.state = stateLoading
		c.initWaiters = append(c.initWaiters, env)
		go func() {
			key := fmt.Sprintf("%p", c.provider)
			_, err, _ := loadGroup.Do(key, func() (any, error) {
				return nil, c.provider.Load(context.Background(), func(percent int) {
					select {
					case c.progressC <- percent:
					case <-c.done:
					}
				})
			})
			select {
			case c.loadDoneC <- err:
			case <-c.done:
			}
		}()
	}
}

func (c *Coordinator) finishLoad(err error) {
	waiters := c.initWaiters
	c.initWaiters = nil

	if err != nil {
		c.state = stateFailed
		c.loadErr = uierrors.Wrap(uierrors.ErrCodeModelLoadFailed, err)
		c.logger.Error("provider load failed", slog.String("error", err.Error()))
		for _, env := range waiters {
			c.reply(env, Message{Kind: KindInitResult, Error: c.loadErr.Error()})
		}
		c.broadcast(Message{Kind: KindError, Error: c.loadErr.Error()})
		return
	}

	c.state = stateReady
	c.progress = 100
	c.logger.Info("provider ready", slog.Int("waiters", len(waiters)))
	for _, env := range waiters {
		c.reply(env, Message{Kind: KindInitResult})
	}
	c.broadcast(Message{Kind: KindReady})
}

func (c *Coordinator) handleEmbed(env envelope) {
	if c.state != stateReady {
		c.reply(env, Message{
			Kind:  KindEmbedResult,
			Error: uierrors.Newf(uierrors.ErrCodeEmbedderNotReady, "embedding provider not ready").Error(),
		})
		return
	}
	vectors, err := c.provider.Embed(context.Background(), env.msg.Texts)
	if err != nil {
		c.reply(env, Message{Kind: KindEmbedResult, Error: err.Error()})
		return
	}
	c.reply(env, Message{Kind: KindEmbedResult, Vectors: vectors})
}

func (c *Coordinator) status() *Status {
	return &Status{
		Ready:     c.state == stateReady,
		Loading:   c.state == stateLoading,
		Progress:  c.progress,
		Consumers: len(c.consumers),
	}
}

// reply sends a response to the requesting consumer, echoing its
// correlation id.
func (c *Coordinator) reply(env envelope, msg Message) {
	ch, ok := c.consumers[env.consumerID]
	if !ok {
		return
	}
	msg.ID = env.msg.ID
	select {
	case ch <- msg:
	default:
		c.logger.Warn("dropping response to slow consumer",
			slog.String("consumer", env.consumerID),
			slog.String("kind", string(msg.Kind)))
	}
}

// broadcast fans a message out to every connected consumer. A consumer
// whose buffer is full misses the broadcast rather than blocking everyone.
func (c *Coordinator) broadcast(msg Message) {
	for id, ch := range c.consumers {
		select {
		case ch <- msg:
		default:
			c.logger.Warn("dropping broadcast to slow consumer",
				slog.String("consumer", id),
				slog.String("kind", string(msg.Kind)))
		}
	}
}
