package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/portkv/portkv/cmd/util"
	"github.com/portkv/portkv/kv/common"
	"github.com/portkv/portkv/kv/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ServeCommand starts an in-memory portkv server
	ServeCommand = &cobra.Command{
		Use:   "serve",
		Short: "Start an in-memory portkv server",
		Long: util.WrapString("Starts one TCP listener per shard at base-port, base-port+1, ... " +
			"Each shard is an independent in-memory store with TTL support. " +
			"Data is not persisted."),
		RunE: runServer,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	key := "host"
	ServeCommand.Flags().String(key, "0.0.0.0", util.WrapString("Address to listen on"))

	key = "base-port"
	ServeCommand.Flags().Int(key, 7400, util.WrapString("TCP port of shard 0; shard i listens on base-port + i"))

	key = "shards"
	ServeCommand.Flags().Int(key, 1, util.WrapString("Number of shard listeners"))

	key = "timeout"
	ServeCommand.Flags().Int(key, 10, util.WrapString("Write deadline per connection in seconds"))

	key = "read-buffer"
	ServeCommand.Flags().Int(key, 512, util.WrapString("Per-connection request buffer size in KB"))

	key = "sweep-interval"
	ServeCommand.Flags().Int(key, 60, util.WrapString("Interval of the expired-entry janitor in seconds"))

	key = "metrics-addr"
	ServeCommand.Flags().String(key, "", util.WrapString("Optional address for a Prometheus /metrics endpoint (e.g. :9100)"))

	key = "log-level"
	ServeCommand.Flags().String(key, "info", util.WrapString("Log level (debug, info, warn, error)"))
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := common.ServerConfig{
		Host:             viper.GetString("host"),
		BasePort:         viper.GetInt("base-port"),
		Shards:           viper.GetInt("shards"),
		TimeoutSecond:    viper.GetInt("timeout"),
		ReadBufferSize:   viper.GetInt("read-buffer") * 1024,
		SweepIntervalSec: viper.GetInt("sweep-interval"),
		MetricsAddr:      viper.GetString("metrics-addr"),
		LogLevel:         viper.GetString("log-level"),
	}

	common.InitLoggers(config.LogLevel)

	srv, err := server.New(config)
	if err != nil {
		return err
	}

	// Shut down on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		srv.Close()
	}()

	return srv.Serve()
}
