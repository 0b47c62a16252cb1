// Package cmd implements the portkv command line interface.
//
// The command tree:
//
//	portkv version        print the version
//	portkv serve          run an in-memory server, one listener per shard
//	portkv kv put|get|del|safe-get
//	                      one-shot store operations against a deployment
//	portkv kv perf        throughput/latency benchmark
//
// All kv subcommands share the deployment flags (--host, --base-port,
// --shards, TCP tuning); every flag can also be set via PORTKV_* environment
// variables or a .env file.
package cmd
