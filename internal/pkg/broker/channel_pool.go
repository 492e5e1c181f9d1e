package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrPoolClosed = errors.New("broker: channel pool closed")

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// ChannelPool hands out a fixed number of channels over one connection.
type ChannelPool struct {
	open     func() (Channel, error)
	closeFn  func() error
	channels chan Channel

	mu     sync.Mutex
	closed bool
}

// Dial connects to url and pre-opens size channels with queue declared.
func Dial(url, queue string, size int) (*ChannelPool, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	open := func() (Channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			ch.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
		return ch, nil
	}

	pool, err := NewChannelPool(open, conn.Close, size)
	if err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("rabbitmq channel pool ready", "queue", queue, "channels", size)
	return pool, nil
}

// NewChannelPool fills a pool with size channels from open. closeFn runs
// after the channels are closed and may be nil.
func NewChannelPool(open func() (Channel, error), closeFn func() error, size int) (*ChannelPool, error) {
	if size <= 0 {
		size = 1
	}

	p := &ChannelPool{
		open:     open,
		closeFn:  closeFn,
		channels: make(chan Channel, size),
	}
	for i := 0; i < size; i++ {
		ch, err := open()
		if err != nil {
			p.drain()
			return nil, fmt.Errorf("failed to create channel %d: %w", i, err)
		}
		p.channels <- ch
	}
	return p, nil
}

// Get waits for a free channel. A channel found closed is replaced; when the
// replacement cannot be opened the slot goes back to the pool for the next Get.
func (p *ChannelPool) Get(ctx context.Context) (Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, ErrPoolClosed
		}
		if ch.IsClosed() {
			fresh, err := p.open()
			if err != nil {
				p.requeue(ch)
				return nil, fmt.Errorf("reopen channel: %w", err)
			}
			return fresh, nil
		}
		return ch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns ch to the pool. A closed channel keeps its slot and is replaced
// by the Get that takes it.
func (p *ChannelPool) Put(ch Channel) {
	if ch == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		ch.Close()
		return
	}
	select {
	case p.channels <- ch:
	default:
		ch.Close()
	}
}

func (p *ChannelPool) requeue(ch Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	select {
	case p.channels <- ch:
	default:
	}
}

func (p *ChannelPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.channels)
	p.drain()

	if p.closeFn != nil {
		return p.closeFn()
	}
	return nil
}

func (p *ChannelPool) drain() {
	for {
		select {
		case ch, ok := <-p.channels:
			if !ok {
				return
			}
			ch.Close()
		default:
			return
		}
	}
}
