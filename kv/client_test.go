package kv

import (
	"bytes"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/portkv/portkv/kv/common"
	"github.com/portkv/portkv/kv/server"
)

// freeBasePort finds a contiguous run of n free TCP ports on localhost
func freeBasePort(t *testing.T, n int) int {
	t.Helper()

	for attempt := 0; attempt < 50; attempt++ {
		base := 20000 + rand.Intn(20000)
		listeners := make([]net.Listener, 0, n)
		ok := true

		for i := 0; i < n; i++ {
			l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", base+i))
			if err != nil {
				ok = false
				break
			}
			listeners = append(listeners, l)
		}

		for _, l := range listeners {
			l.Close()
		}
		if ok {
			return base
		}
	}

	t.Fatal("could not find a contiguous port range")
	return 0
}

// startDeployment starts an in-memory server and a connected client
func startDeployment(t *testing.T, shards int) *Client {
	t.Helper()

	base := freeBasePort(t, shards)

	srv, err := server.New(common.ServerConfig{
		Host:          "127.0.0.1",
		BasePort:      base,
		Shards:        shards,
		TimeoutSecond: 5,
	})
	if err != nil {
		t.Fatalf("server.New failed: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("server start failed: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	client, err := New(common.ClientConfig{
		Host:          "127.0.0.1",
		BasePort:      base,
		Shards:        shards,
		TimeoutSecond: 5,
		TCPNoDelay:    true,
	})
	if err != nil {
		t.Fatalf("client New failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

// TestPutGetDel exercises the full round trip on a single shard
func TestPutGetDel(t *testing.T) {
	client := startDeployment(t, 1)
	client.getTimeout = time.Second

	if err := client.Put([]byte("Hello"), []byte("World"), 60); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	value, err := client.Get([]byte("Hello"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(value, []byte("World")) {
		t.Errorf("Get = %q, want %q", value, "World")
	}

	if err := client.Del([]byte("Hello")); err != nil {
		t.Fatalf("Del failed: %v", err)
	}

	// Deleted key: the protocol answers with silence, observed as a timeout
	if _, err := client.Get([]byte("Hello")); !IsTimeout(err) {
		t.Errorf("Get after Del returned %v, want a timeout error", err)
	}
}

// TestShardedRoundTrip spreads keys over several shards and reads them back
func TestShardedRoundTrip(t *testing.T) {
	client := startDeployment(t, 3)
	client.getTimeout = time.Second

	keys := make([][]byte, 0, 20)
	for i := 0; i < 20; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		value := []byte(fmt.Sprintf("value-%d", i))
		if err := client.Put(key, value, 0); err != nil {
			t.Fatalf("Put %q failed: %v", key, err)
		}
		keys = append(keys, key)
	}

	for i, key := range keys {
		value, err := client.Get(key)
		if err != nil {
			t.Fatalf("Get %q failed: %v", key, err)
		}
		want := fmt.Sprintf("value-%d", i)
		if !bytes.Equal(value, []byte(want)) {
			t.Errorf("Get %q = %q, want %q", key, value, want)
		}
	}
}

// TestSequentialGetsSameShard tests that responses on one shard resolve the
// get that produced them, in send order
func TestSequentialGetsSameShard(t *testing.T) {
	client := startDeployment(t, 1)
	client.getTimeout = time.Second

	if err := client.Put([]byte("a"), []byte("first"), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := client.Put([]byte("b"), []byte("second"), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		got, err := client.Get([]byte("a"))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, []byte("first")) {
			t.Fatalf("iteration %d: Get(a) = %q, want %q", i, got, "first")
		}

		got, err = client.Get([]byte("b"))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, []byte("second")) {
			t.Fatalf("iteration %d: Get(b) = %q, want %q", i, got, "second")
		}
	}
}

// TestConcurrentGetsSameShard hammers one shard from several goroutines and
// checks that every get resolves with the value of its own key
func TestConcurrentGetsSameShard(t *testing.T) {
	client := startDeployment(t, 1)
	client.getTimeout = 2 * time.Second

	if err := client.Put([]byte("a"), []byte("first"), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := client.Put([]byte("b"), []byte("second"), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var wg sync.WaitGroup
	for _, pair := range []struct {
		key, want string
	}{
		{"a", "first"},
		{"b", "second"},
	} {
		wg.Add(1)
		go func(key, want string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				got, err := client.Get([]byte(key))
				if err != nil {
					t.Errorf("iteration %d: Get(%s) failed: %v", i, key, err)
					return
				}
				if !bytes.Equal(got, []byte(want)) {
					t.Errorf("iteration %d: Get(%s) = %q, want %q", i, key, got, want)
					return
				}
			}
		}(pair.key, pair.want)
	}
	wg.Wait()
}

// TestConnectFailFast tests that a missing shard prevents construction
func TestConnectFailFast(t *testing.T) {
	base := freeBasePort(t, 1)

	client, err := New(common.ClientConfig{
		Host:          "127.0.0.1",
		BasePort:      base, // nothing listens here
		Shards:        1,
		TimeoutSecond: 1,
	})
	if err == nil {
		client.Close()
		t.Fatal("New succeeded with no server listening")
	}
	if !IsConnect(err) {
		t.Errorf("error = %v, want a connect error", err)
	}
}

// TestGetTimeout tests the fixed read bound against a silent server
func TestGetTimeout(t *testing.T) {
	base := freeBasePort(t, 1)

	// A server that accepts and then never replies
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", base))
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				buf := make([]byte, 1024)
				for {
					if _, err := c.Read(buf); err != nil {
						c.Close()
						return
					}
				}
			}(conn)
		}
	}()

	client, err := New(common.ClientConfig{
		Host:          "127.0.0.1",
		BasePort:      base,
		Shards:        1,
		TimeoutSecond: 5,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer client.Close()
	client.getTimeout = 200 * time.Millisecond

	if _, err := client.Get([]byte("anything")); !IsTimeout(err) {
		t.Errorf("Get against silent server returned %v, want a timeout error", err)
	}

	// SafeGet converts the same condition into "no value"
	if value := client.SafeGet([]byte("anything")); value != nil {
		t.Errorf("SafeGet against silent server = %q, want nil", value)
	}
}

// TestSafeVariants tests that Safe calls swallow failures but never results
func TestSafeVariants(t *testing.T) {
	client := startDeployment(t, 1)
	client.getTimeout = time.Second

	client.SafePut([]byte("Hello"), []byte("World"), 1)

	if value := client.SafeGet([]byte("Hello")); !bytes.Equal(value, []byte("World")) {
		t.Errorf("SafeGet = %q, want %q", value, "World")
	}

	client.SafeDel([]byte("Hello"))
	client.getTimeout = 200 * time.Millisecond
	if value := client.SafeGet([]byte("Hello")); value != nil {
		t.Errorf("SafeGet after SafeDel = %q, want nil", value)
	}
}

// TestShardStability tests that two clients agree on key placement
func TestShardStability(t *testing.T) {
	client := startDeployment(t, 4)
	other := startDeployment(t, 4)

	for i := 0; i < 50; i++ {
		key := []byte(fmt.Sprintf("agree-%d", i))
		if a, b := client.Shard(key), other.Shard(key); a != b {
			t.Errorf("clients disagree on %q: %d vs %d", key, a, b)
		}
	}
}
