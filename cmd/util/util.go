package util

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/portkv/portkv/kv/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds the shared deployment flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "host"
	cmd.PersistentFlags().String(key, "localhost", WrapString("Host address all shard servers live on"))

	key = "base-port"
	cmd.PersistentFlags().Int(key, 7400, WrapString("TCP port of shard 0; shard i listens on base-port + i"))

	key = "shards"
	cmd.PersistentFlags().Int(key, 1, WrapString("Number of shards. Must match the server deployment; changing it invalidates the placement of stored keys"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("Dial and write deadline in seconds (0 disables deadlines)"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY on the shard connections"))

	key = "tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("TCP keepalive interval in seconds (0 disables)"))

	key = "tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("TCP linger time in seconds"))

	key = "write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("Socket write buffer size in KB"))

	key = "read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("Socket read buffer size in KB. Also bounds the size of a single GET response"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("portkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's own and inherited flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return viper.BindPFlags(cmd.InheritedFlags())
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		Host:            viper.GetString("host"),
		BasePort:        viper.GetInt("base-port"),
		Shards:          viper.GetInt("shards"),
		TimeoutSecond:   viper.GetInt("timeout"),
		TCPNoDelay:      viper.GetBool("tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("tcp-linger"),
		WriteBufferSize: viper.GetInt("write-buffer") * 1024,
		ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
	}
}
