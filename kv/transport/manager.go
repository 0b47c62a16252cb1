package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/portkv/portkv/kv/common"
)

var Logger = logger.GetLogger("transport")

const defaultReadBufferSize = 512 * 1024 // 512 KB

// shardConn is one persistent connection bound 1:1 to a shard index for the
// lifetime of the manager.
type shardConn struct {
	index    int
	endpoint string
	conn     net.Conn
	writeMu  sync.Mutex // serializes writes, the reader goroutine owns reads
	pending  pendingQueue
	stopCh   chan struct{}
	parent   *Manager
}

// Manager owns the full set of shard connections. It establishes all of them
// during construction (fail-fast) and keeps them for its lifetime; there is
// no reconnect policy.
type Manager struct {
	config common.ClientConfig
	conns  []*shardConn

	mu       sync.Mutex
	stopping bool
}

// Connect dials every shard endpoint (Host, BasePort+i). If any single dial
// fails, all already-established connections are torn down and an error is
// returned: a partially connected manager is never handed out. Reader
// goroutines start only once every connection is up.
func Connect(config common.ClientConfig) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		config: config,
		conns:  make([]*shardConn, 0, config.Shards),
	}

	dialTimeout := time.Duration(config.TimeoutSecond) * time.Second

	for i := 0; i < config.Shards; i++ {
		endpoint := config.Endpoint(i)

		conn, err := dial(endpoint, dialTimeout)
		if err == nil {
			err = upgradeConnection(conn, config)
			if err != nil {
				conn.Close()
			}
		}
		if err != nil {
			m.closeConnections()
			return nil, fmt.Errorf("failed to connect shard %d at %s: %v", i, endpoint, err)
		}

		m.conns = append(m.conns, &shardConn{
			index:    i,
			endpoint: endpoint,
			conn:     conn,
			stopCh:   make(chan struct{}),
			parent:   m,
		})
	}

	for _, c := range m.conns {
		go c.readResponses()
	}

	Logger.Infof("Connected to %d shards on %s, ports %d-%d",
		config.Shards, config.Host, config.BasePort, config.BasePort+config.Shards-1)

	return m, nil
}

// Shards returns the number of connections the manager owns.
func (m *Manager) Shards() int {
	return len(m.conns)
}

// Request writes a frame that expects a response and returns the receive
// side of its pending handler. Registration and write happen under the
// connection's write mutex, so two concurrent requests cannot enqueue in one
// order and reach the wire in the other - the FIFO position of a handler
// always matches its request's position in the byte stream. If the write
// fails, the already-registered handler stays queued as an orphan; a stray
// response is then absorbed by it rather than served to a later request.
func (m *Manager) Request(index int, frame []byte) (<-chan Result, error) {
	if m.isStopping() {
		return nil, fmt.Errorf("transport is closed")
	}
	c := m.conns[index]

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ch := c.pending.enqueue()
	if err := c.write(frame); err != nil {
		return nil, err
	}
	return ch, nil
}

// Write sends a fire-and-forget frame to the connection at index.
func (m *Manager) Write(index int, frame []byte) error {
	if m.isStopping() {
		return fmt.Errorf("transport is closed")
	}
	c := m.conns[index]

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.write(frame)
}

// write sends frame on the connection. Callers must hold writeMu.
func (c *shardConn) write(frame []byte) error {
	if c.parent.config.TimeoutSecond > 0 {
		deadline := time.Now().Add(time.Duration(c.parent.config.TimeoutSecond) * time.Second)
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set write deadline on shard %d: %v", c.index, err)
		}
	}

	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("write to shard %d (%s) failed: %v", c.index, c.endpoint, err)
	}
	return nil
}

// Close shuts down all connections and fails every pending handler.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	m.stopping = true
	m.mu.Unlock()

	m.closeConnections()
	return nil
}

// isStopping reports whether Close has been called
func (m *Manager) isStopping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopping
}

// closeConnections closes all established connections
func (m *Manager) closeConnections() {
	for _, c := range m.conns {
		close(c.stopCh)
		c.conn.Close()
		c.pending.failAll(fmt.Errorf("connection to shard %d closed", c.index))
	}
}

// readResponses reads inbound messages in a loop and hands each one to the
// oldest pending handler. One Read is one response message: the protocol has
// no response framing, matching messages to requests is strictly positional.
func (c *shardConn) readResponses() {
	bufSize := c.parent.config.ReadBufferSize
	if bufSize <= 0 {
		bufSize = defaultReadBufferSize
	}
	buf := make([]byte, bufSize)

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		n, err := c.conn.Read(buf)

		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])

			if !c.pending.dispatch(Result{Data: data}) {
				// Desynchronization: a message nobody asked for. Best effort
				// is to drop it rather than poison a later request.
				Logger.Warningf("Dropping %d unsolicited bytes on shard %d (%s)", n, c.index, c.endpoint)
			}
		}

		if err != nil {
			select {
			case <-c.stopCh:
				return
			default:
			}

			Logger.Errorf("Read error on shard %d (%s): %v", c.index, c.endpoint, err)
			c.pending.failAll(fmt.Errorf("connection to shard %d (%s) lost: %v", c.index, c.endpoint, err))
			return
		}
	}
}

// dial establishes a single TCP connection
func dial(endpoint string, timeout time.Duration) (net.Conn, error) {
	if timeout > 0 {
		return net.DialTimeout("tcp", endpoint, timeout)
	}
	return net.Dial("tcp", endpoint)
}

// upgradeConnection applies TCP tuning from the configuration
func upgradeConnection(conn net.Conn, config common.ClientConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	if err := tcpConn.SetNoDelay(config.TCPNoDelay); err != nil {
		return err
	}

	if config.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(config.WriteBufferSize); err != nil {
			return err
		}
	}

	if config.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(config.ReadBufferSize); err != nil {
			return err
		}
	}

	if config.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(config.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	if config.TCPLingerSec > 0 {
		if err := tcpConn.SetLinger(config.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}
