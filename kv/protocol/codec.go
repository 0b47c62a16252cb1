package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Opcodes of the wire protocol. One byte, first byte of every request frame.
const (
	OpPut byte = 0x00
	OpGet byte = 0x01
	OpDel byte = 0x02
)

// maxFieldLen bounds key and value lengths accepted by the stream parser so
// a corrupt length prefix cannot trigger an absurd allocation.
const maxFieldLen = 64 * 1024 * 1024 // 64 MB

// Request is the decoded form of a request frame.
type Request struct {
	Op    byte
	Key   []byte
	Value []byte // PUT only
	TTL   uint32 // PUT only, seconds
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// EncodePut encodes a PUT request. Layout:
//
//	[op=0x00] [ttl u32 LE] [keyLen u32 LE] [key] [valLen u32 LE] [val]
//
// Total frame length is 13 + len(key) + len(value).
func EncodePut(key, value []byte, ttl uint32) []byte {
	buf := make([]byte, 13+len(key)+len(value))
	buf[0] = OpPut

	pos := 1
	binary.LittleEndian.PutUint32(buf[pos:pos+4], ttl)
	pos += 4

	binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(len(key)))
	pos += 4
	copy(buf[pos:], key)
	pos += len(key)

	binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(len(value)))
	pos += 4
	copy(buf[pos:], value)

	return buf
}

// EncodeGet encodes a GET request. Layout:
//
//	[op=0x01] [keyLen u32 LE] [key]
//
// Total frame length is 5 + len(key).
func EncodeGet(key []byte) []byte {
	return encodeKeyOnly(OpGet, key)
}

// EncodeDel encodes a DEL request. Same header shape as GET, distinguished
// by the opcode.
func EncodeDel(key []byte) []byte {
	return encodeKeyOnly(OpDel, key)
}

func encodeKeyOnly(op byte, key []byte) []byte {
	buf := make([]byte, 5+len(key))
	buf[0] = op
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(key)))
	copy(buf[5:], key)
	return buf
}

// DecodeValue decodes a GET response. The protocol has no response framing
// of its own: the entire delivered buffer is the raw value payload.
func DecodeValue(b []byte) []byte {
	return b
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// DecodeRequest parses a single request frame from a complete buffer.
// It returns the decoded request and the number of bytes consumed.
func DecodeRequest(data []byte) (*Request, int, error) {
	if len(data) < 1 {
		return nil, 0, fmt.Errorf("data too short for opcode")
	}

	req := &Request{Op: data[0]}
	pos := 1

	if req.Op == OpPut {
		if pos+4 > len(data) {
			return nil, 0, fmt.Errorf("data too short for ttl")
		}
		req.TTL = binary.LittleEndian.Uint32(data[pos : pos+4])
		pos += 4
	} else if req.Op != OpGet && req.Op != OpDel {
		return nil, 0, fmt.Errorf("unknown opcode: 0x%02x", req.Op)
	}

	key, n, err := decodeField(data[pos:], "key")
	if err != nil {
		return nil, 0, err
	}
	req.Key = key
	pos += n

	if req.Op == OpPut {
		value, n, err := decodeField(data[pos:], "value")
		if err != nil {
			return nil, 0, err
		}
		req.Value = value
		pos += n
	}

	return req, pos, nil
}

// decodeField reads a length-prefixed byte field
func decodeField(data []byte, name string) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, fmt.Errorf("data too short for %s length", name)
	}
	fieldLen := binary.LittleEndian.Uint32(data[:4])
	if fieldLen > maxFieldLen {
		return nil, 0, fmt.Errorf("%s length %d exceeds maximum", name, fieldLen)
	}
	if 4+int(fieldLen) > len(data) {
		return nil, 0, fmt.Errorf("data too short for %s data", name)
	}

	field := make([]byte, fieldLen)
	copy(field, data[4:4+fieldLen])
	return field, 4 + int(fieldLen), nil
}

// ReadRequest parses a single request frame from a byte stream. The length
// prefixes make request frames self-delimiting, so consecutive requests on
// one connection can be read back to back.
func ReadRequest(r io.Reader) (*Request, error) {
	var header [1]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	req := &Request{Op: header[0]}

	if req.Op == OpPut {
		var ttl [4]byte
		if _, err := io.ReadFull(r, ttl[:]); err != nil {
			return nil, fmt.Errorf("failed to read ttl: %v", err)
		}
		req.TTL = binary.LittleEndian.Uint32(ttl[:])
	} else if req.Op != OpGet && req.Op != OpDel {
		return nil, fmt.Errorf("unknown opcode: 0x%02x", req.Op)
	}

	key, err := readField(r, "key")
	if err != nil {
		return nil, err
	}
	req.Key = key

	if req.Op == OpPut {
		value, err := readField(r, "value")
		if err != nil {
			return nil, err
		}
		req.Value = value
	}

	return req, nil
}

// readField reads a length-prefixed byte field from the stream
func readField(r io.Reader, name string) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read %s length: %v", name, err)
	}
	fieldLen := binary.LittleEndian.Uint32(lenBuf[:])
	if fieldLen > maxFieldLen {
		return nil, fmt.Errorf("%s length %d exceeds maximum", name, fieldLen)
	}

	field := make([]byte, fieldLen)
	if _, err := io.ReadFull(r, field); err != nil {
		return nil, fmt.Errorf("failed to read %s data: %v", name, err)
	}
	return field, nil
}
