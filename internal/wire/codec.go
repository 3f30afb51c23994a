// Package wire implements the framed, integrity-checked byte-stream
// protocol described in spec.md §4.1. It has a single entry point per
// direction (Send/Recv) and never interprets payload contents — that is
// left to the session and payload codecs.
package wire

import (
	"encoding/binary"
	"io"
	"net"
	"time"
)

const headerLen = 8

// Send writes a frame: 4-byte length, 2-byte opcode, 2-byte checksum,
// then the XOR-obfuscated payload. The header itself is never obfuscated.
func Send(w io.Writer, op Opcode, payload []byte) error {
	if len(payload) > MaxPayload {
		return ErrPayloadTooLarge
	}

	header := make([]byte, headerLen)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint16(header[4:6], uint16(op))
	binary.BigEndian.PutUint16(header[6:8], checksum(payload))

	buf := make([]byte, headerLen+len(payload))
	copy(buf, header)
	obfuscate(buf[headerLen:], payload)

	_, err := w.Write(buf)
	return err
}

// Recv reads exactly one frame: 8 header bytes then L payload bytes.
// Every failure returned here is session-terminal per spec.md §7,
// except ErrTimeout (see its doc comment) — callers that use a read
// deadline (e.g. the worker pool's readiness approximation, spec.md
// §4.5) must check for ErrTimeout specifically before tearing the
// session down; any other error, including ErrFrameDesync, is terminal.
func Recv(r io.Reader) (Opcode, []byte, error) {
	header := make([]byte, headerLen)
	n, err := io.ReadFull(r, header)
	if err != nil {
		if n == 0 && isTimeout(err) {
			return 0, nil, ErrTimeout
		}
		if n > 0 && isTimeout(err) {
			// Part of the header was already consumed off the stream;
			// the boundary is gone even though nothing is "wrong" with
			// the bytes read so far.
			return 0, nil, ErrFrameDesync
		}
		return 0, nil, wrapClosed(err)
	}

	length := binary.BigEndian.Uint32(header[0:4])
	op := Opcode(binary.BigEndian.Uint16(header[4:6]))
	wantChecksum := binary.BigEndian.Uint16(header[6:8])

	if length > MaxPayload {
		return 0, nil, ErrPayloadTooLarge
	}
	if length == 0 {
		return op, nil, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		// The header is already off the stream at this point, so any
		// failure here — including a deadline timeout, regardless of
		// how many payload bytes were read — is unrecoverable: the
		// remaining payload bytes (if any) are still sitting unread and
		// would be misread as the next frame's header.
		if isTimeout(err) {
			return 0, nil, ErrFrameDesync
		}
		return 0, nil, wrapClosed(err)
	}
	deobfuscate(payload)
	if checksum(payload) != wantChecksum {
		return 0, nil, ErrChecksum
	}

	return op, payload, nil
}

// RecvWithDeadline waits up to d for data to be available on conn, then
// delegates to Recv. Used only by ancillary tools (spec.md §5) — the
// serving path uses non-blocking readiness instead.
func RecvWithDeadline(conn net.Conn, d time.Duration) (Opcode, []byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		return 0, nil, err
	}
	defer conn.SetReadDeadline(time.Time{})

	return Recv(conn)
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func wrapClosed(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrClosed
	}
	return err
}

// checksum is the low 16 bits of the unsigned sum of plaintext payload
// bytes, or 0 for an empty payload.
func checksum(payload []byte) uint16 {
	var sum uint32
	for _, b := range payload {
		sum += uint32(b)
	}
	return uint16(sum)
}

func obfuscate(dst, src []byte) {
	for i, b := range src {
		dst[i] = b ^ obfuscationKey
	}
}

func deobfuscate(buf []byte) {
	for i, b := range buf {
		buf[i] = b ^ obfuscationKey
	}
}
