package sentry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

// Option 调整底层 SDK 选项
type Option func(*sentry.ClientOptions)

// WithBeforeSend 事件发送前回调，返回 nil 丢弃事件
func WithBeforeSend(fn func(*sentry.Event, *sentry.EventHint) *sentry.Event) Option {
	return func(o *sentry.ClientOptions) {
		o.BeforeSend = fn
	}
}

// Client Sentry 客户端，使用独立 Hub 不污染全局状态
type Client struct {
	hub    *sentry.Hub
	config *Config
	closed atomic.Bool

	eventsTotal    atomic.Uint64
	eventsCaptured atomic.Uint64
}

// Stats 统计信息
type Stats struct {
	EventsTotal    uint64
	EventsCaptured uint64
}

// New 创建 Sentry 客户端
func New(cfg *Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := cfg.toClientOptions()
	for _, opt := range opts {
		opt(&options)
	}

	client, err := sentry.NewClient(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for key, value := range cfg.Tags {
			scope.SetTag(key, value)
		}
	})

	return &Client{hub: hub, config: cfg}, nil
}

// CaptureException 上报错误
func (c *Client) CaptureException(err error) *sentry.EventID {
	if c.closed.Load() || err == nil {
		return nil
	}
	c.eventsTotal.Add(1)
	id := c.hub.CaptureException(err)
	c.count(id)
	return id
}

// CaptureEvent 上报自定义事件
func (c *Client) CaptureEvent(event *sentry.Event) *sentry.EventID {
	if c.closed.Load() || event == nil {
		return nil
	}
	c.eventsTotal.Add(1)
	id := c.hub.CaptureEvent(event)
	c.count(id)
	return id
}

func (c *Client) count(id *sentry.EventID) {
	if id != nil && *id != "" {
		c.eventsCaptured.Add(1)
	}
}

// Flush 等待事件上报完成
func (c *Client) Flush(timeout time.Duration) bool {
	return c.hub.Flush(timeout)
}

// Close 上报剩余事件并关闭
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	c.hub.Flush(c.config.ShutdownTimeout)
	return nil
}

// Stats 获取统计信息
func (c *Client) Stats() Stats {
	return Stats{
		EventsTotal:    c.eventsTotal.Load(),
		EventsCaptured: c.eventsCaptured.Load(),
	}
}

// IsClosed 是否已关闭
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
