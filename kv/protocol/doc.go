// Package protocol implements the binary wire protocol spoken between the
// portkv client and the shard servers.
//
// All integers are fixed-width little-endian; keys and values are
// length-prefixed opaque byte sequences. Request frames:
//
//	PUT  [0x00] [ttl u32] [keyLen u32] [key] [valLen u32] [val]
//	GET  [0x01] [keyLen u32] [key]
//	DEL  [0x02] [keyLen u32] [key]
//
// PUT and DEL expect no response. A GET response carries no framing of its
// own: the server answers with the raw value bytes in a single write, and
// the client treats one delivery as one message.
//
// The byte layouts are the protocol's compatibility contract and must not
// change.
package protocol
