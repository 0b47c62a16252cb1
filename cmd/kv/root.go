package kv

import (
	"github.com/portkv/portkv/cmd/util"
	"github.com/portkv/portkv/kv"
	"github.com/spf13/cobra"
)

var (
	client *kv.Client

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value store operations",
		PersistentPreRunE: setupClient,
		PersistentPostRun: teardownClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add the shared deployment flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(safeGetCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupClient connects the sharded client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := util.GetClientConfig()

	var err error
	client, err = kv.New(*config)
	return err
}

func teardownClient(_ *cobra.Command, _ []string) {
	if client != nil {
		client.Close()
	}
}
