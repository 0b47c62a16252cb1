// Package common holds the configuration structs and logging setup shared by
// all portkv packages.
//
// ClientConfig describes a sharded deployment from the client's point of
// view: a host, a base TCP port and a shard count. Shard i is always reached
// at (Host, BasePort+i); the mapping is part of the protocol contract and
// must match the server's layout. ServerConfig mirrors the same addressing
// for the server side.
//
// Logging uses the dragonboat logger facade with a custom formatter. Call
// InitLoggers once at startup (the CLI does this); library consumers that
// never call it get dragonboat's default logger, which is fine for embedding.
package common
