package server

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/portkv/portkv/kv/common"
	"github.com/portkv/portkv/kv/protocol"
)

var Logger = logger.GetLogger("server")

const (
	defaultReadBufferSize  = 512 * 1024 // 512 KB
	defaultSweepIntervalS  = 60
	defaultRequestMetricsF = `portkv_server_requests_total{op=%q}`
)

var (
	putOps = metrics.NewCounter(fmt.Sprintf(defaultRequestMetricsF, "put"))
	getOps = metrics.NewCounter(fmt.Sprintf(defaultRequestMetricsF, "get"))
	delOps = metrics.NewCounter(fmt.Sprintf(defaultRequestMetricsF, "del"))
)

// Server is a protocol-compliant in-memory portkv server. It opens one
// listener per shard at (Host, BasePort+i), each backed by an independent
// store, mirroring the addressing the client routes against.
type Server struct {
	config    common.ServerConfig
	stores    []*memStore
	listeners []net.Listener

	mu       sync.Mutex
	stopping bool
	stopCh   chan struct{}
}

// New creates a server for the given configuration. Listeners are not bound
// until Start is called.
func New(config common.ServerConfig) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stores := make([]*memStore, config.Shards)
	for i := range stores {
		stores[i] = newMemStore()
	}

	return &Server{
		config: config,
		stores: stores,
		stopCh: make(chan struct{}),
	}, nil
}

// Start binds every shard listener and begins accepting connections. Binding
// is fail-fast: if any one port cannot be bound, the already-bound listeners
// are closed and an error is returned. Start does not block.
func (s *Server) Start() error {
	listeners := make([]net.Listener, 0, s.config.Shards)

	for i := 0; i < s.config.Shards; i++ {
		endpoint := s.config.Endpoint(i)
		l, err := net.Listen("tcp", endpoint)
		if err != nil {
			for _, bound := range listeners {
				bound.Close()
			}
			return fmt.Errorf("failed to bind shard %d at %s: %v", i, endpoint, err)
		}
		listeners = append(listeners, l)
	}
	s.listeners = listeners

	Logger.Infof("Serving %d shards on %s, ports %d-%d",
		s.config.Shards, s.config.Host, s.config.BasePort, s.config.BasePort+s.config.Shards-1)

	for i, l := range listeners {
		go s.acceptLoop(i, l)
	}

	if s.config.MetricsAddr != "" {
		go s.serveMetrics()
	}

	go s.janitor()

	return nil
}

// Serve is Start followed by blocking until Close is called.
func (s *Server) Serve() error {
	if err := s.Start(); err != nil {
		return err
	}
	Logger.Infof("%s", s.config.String())
	<-s.stopCh
	return nil
}

// Close shuts the server down: all listeners are closed, the janitor stops
// and Serve returns. Connections already accepted are closed by their
// handler goroutines once their client disconnects or their next read fails.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	s.mu.Unlock()

	close(s.stopCh)
	for _, l := range s.listeners {
		l.Close()
	}
	return nil
}

// Entries returns the number of entries held by the shard at index,
// expired ones included.
func (s *Server) Entries(index int) int {
	return s.stores[index].Size()
}

// acceptLoop accepts connections for one shard
func (s *Server) acceptLoop(shard int, l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}
			Logger.Errorf("Accept error on shard %d: %v", shard, err)
			continue
		}

		go s.handleConnection(shard, conn)
	}
}

// handleConnection serves one client connection for one shard. Requests are
// self-delimiting (length-prefixed fields), so they are read back to back
// from the stream. Only GET produces a reply: the raw value bytes in a
// single write. A missing key produces no reply at all - the protocol has
// no not-found signaling and clients observe the absence as a timeout.
func (s *Server) handleConnection(shard int, conn net.Conn) {
	defer conn.Close()

	store := s.stores[shard]

	bufSize := s.config.ReadBufferSize
	if bufSize <= 0 {
		bufSize = defaultReadBufferSize
	}
	reader := bufio.NewReaderSize(conn, bufSize)

	writeTimeout := time.Duration(s.config.TimeoutSecond) * time.Second

	for {
		req, err := protocol.ReadRequest(reader)
		if err != nil {
			if err != io.EOF {
				Logger.Debugf("Connection on shard %d ended: %v", shard, err)
			}
			return
		}

		switch req.Op {
		case protocol.OpPut:
			putOps.Inc()
			store.Set(req.Key, req.Value, req.TTL)

		case protocol.OpDel:
			delOps.Inc()
			store.Delete(req.Key)

		case protocol.OpGet:
			getOps.Inc()
			value, ok := store.Get(req.Key)
			if !ok {
				continue
			}

			if writeTimeout > 0 {
				if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
					Logger.Errorf("Failed to set write deadline on shard %d: %v", shard, err)
					return
				}
			}
			if _, err := conn.Write(value); err != nil {
				Logger.Errorf("Write error on shard %d: %v", shard, err)
				return
			}
		}
	}
}

// janitor periodically sweeps expired entries from every shard store
func (s *Server) janitor() {
	interval := s.config.SweepIntervalSec
	if interval <= 0 {
		interval = defaultSweepIntervalS
	}

	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			dropped := 0
			for _, store := range s.stores {
				dropped += store.sweep(now)
			}
			if dropped > 0 {
				Logger.Infof("Janitor dropped %d expired entries", dropped)
			}
		}
	}
}

// serveMetrics exposes Prometheus-format metrics on the configured address
func (s *Server) serveMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	Logger.Infof("Metrics endpoint on %s/metrics", s.config.MetricsAddr)
	if err := http.ListenAndServe(s.config.MetricsAddr, mux); err != nil {
		Logger.Errorf("Metrics endpoint failed: %v", err)
	}
}
