package assets

// codec.go implements the size-prefixed binary record convention used by
// lifecyclers and by the asset builder (§4.7, §6): a varint length followed
// by that many bytes. Framing uses the same varint shape as protobuf's wire
// format (protowire), though the payload bytes themselves are opaque to the
// cache -- each lifecycler defines its own content.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

const maxVarintBytes = 10 // ceil(64/7), protowire's own varint bound

// WriteSized writes a varint length prefix followed by data.
func WriteSized(w io.Writer, data []byte) error {
	var lenBuf [maxVarintBytes]byte
	n := putVarint(lenBuf[:], uint64(len(data)))
	if _, err := w.Write(lenBuf[:n]); err != nil {
		return fmt.Errorf("assets: write length prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("assets: write payload: %w", err)
	}
	return nil
}

func putVarint(buf []byte, v uint64) int {
	return copy(buf, protowire.AppendVarint(buf[:0], v))
}

// ReadSized reads a varint length prefix then that many bytes, returning the
// payload span (§4.7's read_sized).
func ReadSized(r io.Reader) ([]byte, error) {
	// A reader that needs buffering for the varint (no ReadByte of its own)
	// must also supply the payload bytes, since bufio may have already
	// pulled some of the payload into its internal buffer.
	br, ok := r.(interface {
		io.ByteReader
		io.Reader
	})
	if !ok {
		br = bufio.NewReader(r)
	}
	length, err := readVarint(br)
	if err != nil {
		return nil, fmt.Errorf("assets: read length prefix: %w", err)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, fmt.Errorf("assets: read payload: %w", err)
	}
	return buf, nil
}

// bufferedReadSeeker wraps an io.ReadSeeker in a single shared bufio.Reader
// so that a lifecycler reading several ReadSized records off the same
// source (a *os.File has no ReadByte of its own) doesn't have each call's
// ReadSized wrap it in a fresh, independent bufio.Reader -- which would
// swallow payload bytes meant for the next record into a buffer that gets
// discarded when that call returns. Seek invalidates and re-fills the
// buffer from the new position.
type bufferedReadSeeker struct {
	r  io.ReadSeeker
	br *bufio.Reader
}

func newBufferedReadSeeker(r io.ReadSeeker) *bufferedReadSeeker {
	return &bufferedReadSeeker{r: r, br: bufio.NewReader(r)}
}

func (b *bufferedReadSeeker) Read(p []byte) (int, error) { return b.br.Read(p) }
func (b *bufferedReadSeeker) ReadByte() (byte, error)    { return b.br.ReadByte() }

func (b *bufferedReadSeeker) Seek(offset int64, whence int) (int64, error) {
	pos, err := b.r.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	b.br.Reset(b.r)
	return pos, nil
}

func readVarint(br io.ByteReader) (uint64, error) {
	var v uint64
	var shift uint
	for i := 0; i < maxVarintBytes; i++ {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
	return 0, fmt.Errorf("assets: varint too long")
}

// Deserialize reads a varint length then that many bytes from r and decodes
// them via gob into a value of type T -- the stable binary codec lifecyclers
// use for recursive/structured payloads (§4.7's deserialize<T>()).
func Deserialize[T any](r io.Reader) (T, error) {
	var zero T
	data, err := ReadSized(r)
	if err != nil {
		return zero, err
	}
	var v T
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil {
		return zero, fmt.Errorf("assets: decode payload: %w", err)
	}
	return v, nil
}

// Serialize encodes v via gob and writes it size-prefixed to w, the
// counterpart used by the asset builder's Output.serialize<T>.
func Serialize[T any](w io.Writer, v T) error {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("assets: encode payload: %w", err)
	}
	return WriteSized(w, buf.Bytes())
}
