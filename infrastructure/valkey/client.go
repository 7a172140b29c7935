package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"
)

const defaultConnectTimeout = 5 * time.Second

type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
	// DisableCache turns off client side caching (servers without CLIENT TRACKING)
	DisableCache bool
}

// Client is the shared connection used by the session store and the
// simulator fan-out. Every key and channel goes through Key so nodes of
// different deployments can share one server.
type Client struct {
	inner  valkeylib.Client
	prefix string
}

// NewClient dials the server and pings it before returning. The caller owns
// Close.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	inner, err := valkeylib.NewClient(valkeylib.ClientOption{
		InitAddress:  []string{cfg.Address},
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: cfg.DisableCache,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client for %s: %w", cfg.Address, err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &Client{inner: inner, prefix: strings.TrimSuffix(cfg.KeyPrefix, ":")}
	if err := client.Ping(pingCtx); err != nil {
		inner.Close()
		return nil, fmt.Errorf("valkey at %s did not answer within %v: %w", cfg.Address, timeout, err)
	}
	return client, nil
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key joins parts with ":" under the configured prefix.
// Key("session", "abc") -> "estate:session:abc"
func (c *Client) Key(parts ...string) string {
	if c.prefix == "" {
		return strings.Join(parts, ":")
	}
	return strings.Join(append([]string{c.prefix}, parts...), ":")
}

func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// GetString reads a string key. A missing key is reported with found=false
// and a nil error.
func (c *Client) GetString(ctx context.Context, key string) (value string, found bool, err error) {
	value, err = c.inner.Do(ctx, c.inner.B().Get().Key(key).Build()).ToString()
	if valkeylib.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetWithTTL overwrites key and sets its expiry with millisecond precision.
func (c *Client) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.inner.Do(ctx, c.inner.B().Set().Key(key).Value(value).Px(ttl).Build()).Error()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.inner.Do(ctx, c.inner.B().Del().Key(keys...).Build()).Error()
}

// ScanKeys walks the keyspace with SCAN and returns every key matching pattern.
func (c *Client) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		entry, err := c.inner.Do(ctx, c.inner.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build()).AsScanEntry()
		if err != nil {
			return nil, err
		}
		keys = append(keys, entry.Elements...)
		if cursor = entry.Cursor; cursor == 0 {
			return keys, nil
		}
	}
}

func (c *Client) Publish(ctx context.Context, channel, payload string) error {
	cmd := c.inner.B().Publish().Channel(c.Key(channel)).Message(payload).Build()
	if err := c.inner.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}

// Subscribe blocks, handing every message of the prefixed channel to fn,
// until ctx is cancelled or the connection drops.
func (c *Client) Subscribe(ctx context.Context, channel string, fn func(payload string)) error {
	cmd := c.inner.B().Subscribe().Channel(c.Key(channel)).Build()
	return c.inner.Receive(ctx, cmd, func(msg valkeylib.PubSubMessage) {
		fn(msg.Message)
	})
}
