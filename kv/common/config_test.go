package common

import (
	"testing"
)

// TestEndpointLayout tests the contiguous-port addressing scheme
func TestEndpointLayout(t *testing.T) {
	c := ClientConfig{Host: "10.0.0.5", BasePort: 7400, Shards: 3}

	want := []string{"10.0.0.5:7400", "10.0.0.5:7401", "10.0.0.5:7402"}
	for i, w := range want {
		if got := c.Endpoint(i); got != w {
			t.Errorf("Endpoint(%d) = %q, want %q", i, got, w)
		}
	}
}

// TestClientConfigValidate tests rejection of broken configurations
func TestClientConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		config ClientConfig
		valid  bool
	}{
		{"ok", ClientConfig{Host: "localhost", BasePort: 7400, Shards: 4}, true},
		{"no host", ClientConfig{BasePort: 7400, Shards: 1}, false},
		{"zero port", ClientConfig{Host: "localhost", Shards: 1}, false},
		{"zero shards", ClientConfig{Host: "localhost", BasePort: 7400}, false},
		{"port range overflow", ClientConfig{Host: "localhost", BasePort: 65530, Shards: 10}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.valid && err != nil {
				t.Errorf("Validate failed: %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("Validate accepted a broken configuration")
			}
		})
	}
}
