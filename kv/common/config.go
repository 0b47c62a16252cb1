package common

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for the portkv client.
// Each shard is reached at (Host, BasePort + shardIndex); the shard count
// is fixed for the lifetime of the client.
type ClientConfig struct {
	// Host is the address all shard servers live on
	Host string
	// BasePort is the TCP port of shard 0; shard i listens on BasePort + i
	BasePort int
	// Shards is the number of independent shard connections
	Shards int

	// Dial/write deadline in seconds (0 disables deadlines)
	TimeoutSecond int

	// TCP tuning
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
	WriteBufferSize int
	ReadBufferSize  int
}

// Endpoint returns the TCP endpoint of the shard at the given index.
func (c *ClientConfig) Endpoint(index int) string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.BasePort+index))
}

// Validate checks the configuration for obvious misconfiguration
func (c *ClientConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("no host provided")
	}
	if c.BasePort <= 0 || c.BasePort > 65535 {
		return fmt.Errorf("invalid base port: %d", c.BasePort)
	}
	if c.Shards < 1 {
		return fmt.Errorf("shard count must be at least 1, got %d", c.Shards)
	}
	if c.BasePort+c.Shards-1 > 65535 {
		return fmt.Errorf("shard port range exceeds 65535 (base %d, shards %d)", c.BasePort, c.Shards)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Host", c.Host)
	addField("Base Port", strconv.Itoa(c.BasePort))
	addField("Shards", strconv.Itoa(c.Shards))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("TCP Tuning")
	addField("No Delay", fmt.Sprintf("%t", c.TCPNoDelay))
	addField("Keep Alive", fmt.Sprintf("%d sec", c.TCPKeepAliveSec))
	addField("Linger", fmt.Sprintf("%d sec", c.TCPLingerSec))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.ReadBufferSize))

	addSection("Shard Endpoints")
	for i := 0; i < c.Shards; i++ {
		addField(strconv.Itoa(i), c.Endpoint(i))
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the portkv server.
// The server opens one listener per shard, mirroring the client's
// (Host, BasePort + shardIndex) addressing.
type ServerConfig struct {
	Host     string
	BasePort int
	Shards   int

	// Read/write deadline per connection in seconds (0 disables deadlines)
	TimeoutSecond int

	// ReadBufferSize is the per-connection request buffer size
	ReadBufferSize int

	// SweepIntervalSec is the interval of the expired-entry janitor
	SweepIntervalSec int

	// MetricsAddr optionally exposes a /metrics endpoint when non-empty
	MetricsAddr string

	// Logging configuration
	LogLevel string
}

// Endpoint returns the TCP endpoint of the shard at the given index.
func (c *ServerConfig) Endpoint(index int) string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.BasePort+index))
}

// Validate checks the configuration for obvious misconfiguration
func (c *ServerConfig) Validate() error {
	if c.BasePort <= 0 || c.BasePort > 65535 {
		return fmt.Errorf("invalid base port: %d", c.BasePort)
	}
	if c.Shards < 1 {
		return fmt.Errorf("shard count must be at least 1, got %d", c.Shards)
	}
	if c.BasePort+c.Shards-1 > 65535 {
		return fmt.Errorf("shard port range exceeds 65535 (base %d, shards %d)", c.BasePort, c.Shards)
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Server Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.ReadBufferSize))
	addField("Sweep Interval", fmt.Sprintf("%d sec", c.SweepIntervalSec))
	if c.MetricsAddr != "" {
		addField("Metrics Endpoint", c.MetricsAddr)
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Shards")
	for i := 0; i < c.Shards; i++ {
		addField(strconv.Itoa(i), c.Endpoint(i))
	}

	return sb.String()
}
