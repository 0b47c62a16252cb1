// Package kv provides the public client for a portkv deployment: a
// key-value store sharded over N independent TCP servers.
//
// Keys route deterministically to shards via a stable hash, so independent
// clients configured with the same shard count agree on placement. PUT and
// DEL are fire-and-forget: they resolve when the write is handed to the
// transport, not on a server acknowledgment. GET waits for the shard's
// response, bounded by a fixed 30-second timeout.
//
// Usage:
//
//	client, err := kv.New(common.ClientConfig{
//		Host:     "localhost",
//		BasePort: 7400,
//		Shards:   4,
//	})
//	if err != nil {
//		// one or more shards refused the connection
//	}
//	defer client.Close()
//
//	client.Put([]byte("Hello"), []byte("World"), 60)
//	value, err := client.Get([]byte("Hello"))
//
// All methods are safe for concurrent use. Requests to different shards are
// independent. The wire protocol has no response framing or request
// identifiers, so a connection can only carry one outstanding GET at a time;
// the client enforces this by serializing same-shard GETs internally.
// Concurrent GET calls against one shard are therefore safe but take turns,
// each waiting for the previous response (or its timeout).
package kv

import (
	"fmt"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/portkv/portkv/kv/common"
	"github.com/portkv/portkv/kv/protocol"
	"github.com/portkv/portkv/kv/router"
	"github.com/portkv/portkv/kv/transport"
)

var Logger = logger.GetLogger("client")

// GetTimeout is the fixed bound a Get waits for its response. The protocol
// offers no per-request timeouts; this single constant is the only read
// bound the client has.
const GetTimeout = 30 * time.Second

// Client is a handle to a sharded portkv deployment. Create it with New;
// the zero value is not usable.
type Client struct {
	config  common.ClientConfig
	table   router.Table
	manager *transport.Manager

	// getMu serializes gets per shard: the unframed wire protocol cannot
	// tell two coalesced responses apart, so at most one get may be
	// outstanding on a connection
	getMu []sync.Mutex

	// getTimeout is GetTimeout; tests shorten it
	getTimeout time.Duration
}

// New connects to every shard of the deployment described by config and
// returns a ready client. Construction is fail-fast: if any one shard
// connection cannot be established, no client is returned.
func New(config common.ClientConfig) (*Client, error) {
	manager, err := transport.Connect(config)
	if err != nil {
		return nil, NewError(ErrCodeConnect, err.Error())
	}

	return &Client{
		config:     config,
		table:      router.NewTable(config.Shards),
		manager:    manager,
		getMu:      make([]sync.Mutex, config.Shards),
		getTimeout: GetTimeout,
	}, nil
}

// Shard returns the shard index the given key routes to.
func (c *Client) Shard(key []byte) int {
	return c.table.Route(key)
}

// Put stores value under key with a ttl in seconds (0 means no expiry,
// server-defined semantics). It resolves on a successful write to the
// transport; the protocol sends no server-level acknowledgment for writes.
func (c *Client) Put(key, value []byte, ttl uint32) error {
	putTotal.Inc()

	index := c.table.Route(key)
	if err := c.manager.Write(index, protocol.EncodePut(key, value, ttl)); err != nil {
		putErrors.Inc()
		return NewError(ErrCodeTransport, err.Error())
	}
	return nil
}

// Get retrieves the value stored under key. It fails with a timeout error
// if the shard does not respond within GetTimeout, and with a transport
// error if the write or the connection fails. Concurrent gets routing to
// the same shard are served one at a time, in lock acquisition order.
func (c *Client) Get(key []byte) ([]byte, error) {
	getTotal.Inc()
	start := time.Now()

	index := c.table.Route(key)

	// One outstanding get per shard: a second response in flight could be
	// coalesced with the first into a single read and become inseparable
	c.getMu[index].Lock()
	defer c.getMu[index].Unlock()

	respCh, err := c.manager.Request(index, protocol.EncodeGet(key))
	if err != nil {
		getErrors.Inc()
		// The handler registered by Request is orphaned now. It stays queued
		// so a stray response is absorbed by it rather than served to a
		// later get.
		return nil, NewError(ErrCodeTransport, err.Error())
	}

	select {
	case res := <-respCh:
		if res.Err != nil {
			getErrors.Inc()
			return nil, NewError(ErrCodeTransport, res.Err.Error())
		}
		getDuration.UpdateDuration(start)
		return protocol.DecodeValue(res.Data), nil

	case <-time.After(c.getTimeout):
		getTimeouts.Inc()
		return nil, NewError(ErrCodeTimeout,
			fmt.Sprintf("no response from shard %d within %s", index, c.getTimeout))
	}
}

// Del removes the value stored under key. Like Put it is fire-and-forget:
// it resolves on a successful write and does not wait for a response.
func (c *Client) Del(key []byte) error {
	delTotal.Inc()

	index := c.table.Route(key)
	if err := c.manager.Write(index, protocol.EncodeDel(key)); err != nil {
		delErrors.Inc()
		return NewError(ErrCodeTransport, err.Error())
	}
	return nil
}

// --------------------------------------------------------------------------
// Safe variants
// --------------------------------------------------------------------------

// SafePut is Put with all failures converted into a quiet no-op.
func (c *Client) SafePut(key, value []byte, ttl uint32) {
	if err := c.Put(key, value, ttl); err != nil {
		Logger.Debugf("safe put failed: %v", err)
	}
}

// SafeGet is Get with all failures converted into "no value": it returns nil
// on any error (including timeout) and the value on success.
func (c *Client) SafeGet(key []byte) []byte {
	value, err := c.Get(key)
	if err != nil {
		Logger.Debugf("safe get failed: %v", err)
		return nil
	}
	return value
}

// SafeDel is Del with all failures converted into a quiet no-op.
func (c *Client) SafeDel(key []byte) {
	if err := c.Del(key); err != nil {
		Logger.Debugf("safe del failed: %v", err)
	}
}

// Close shuts down all shard connections. In-flight gets resolve with a
// transport error.
func (c *Client) Close() error {
	return c.manager.Close()
}
