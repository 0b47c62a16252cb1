package cmd

import (
	"fmt"
	"os"

	"github.com/portkv/portkv/cmd/kv"
	"github.com/portkv/portkv/cmd/serve"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "portkv",
		Short: "sharded key-value store client",
		Long: fmt.Sprintf(`portkv (v%s)

A client for a key-value store sharded over N independent TCP servers,
one shard per port. Keys route to shards by a stable hash, so every
client agrees on placement without coordination.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of portkv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("portkv v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(serve.ServeCommand)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
