package multivec

import (
	"bufio"
	"bytes"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/multivec/codec"
	"github.com/hupe1980/multivec/group"
)

// Snapshot wire format:
//
//	magic "MVSN" | version u8 | compression u8 | codec name len u8 |
//	codec name | payload len u64 BE | payload | crc32(payload) u32 BE
//
// The payload is the codec-encoded state, compressed according to the
// compression byte. The header makes snapshots self-describing: loading
// ignores the codec and compression configured on the loader and uses what
// the file records.
var snapshotMagic = [4]byte{'M', 'V', 'S', 'N'}

const snapshotVersion = 1

var (
	// ErrBadMagic is returned when a snapshot does not start with the
	// expected magic bytes.
	ErrBadMagic = errors.New("bad snapshot magic")

	// ErrUnsupportedVersion is returned for snapshot versions this build
	// cannot read.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")

	// ErrUnknownCodec is returned when a snapshot names a codec this build
	// does not know.
	ErrUnknownCodec = errors.New("unknown snapshot codec")

	// ErrUnknownCompression is returned when a snapshot names a compression
	// scheme this build does not know.
	ErrUnknownCompression = errors.New("unknown snapshot compression")
)

// ChecksumMismatchError indicates snapshot payload corruption.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("snapshot checksum mismatch: expected %08x, got %08x", e.Expected, e.Actual)
}

// Compression selects the compression applied to snapshot payloads.
type Compression uint8

const (
	// CompressionNone stores payloads uncompressed.
	CompressionNone Compression = iota

	// CompressionLZ4 trades ratio for speed.
	CompressionLZ4

	// CompressionZstd trades speed for ratio.
	CompressionZstd
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

type entryState[V any] struct {
	Start int `json:"start"`
	Size  int `json:"size"`
	Value V   `json:"value"`
}

type vectorState[K cmp.Ordered, V any] struct {
	Name     K               `json:"name"`
	Capacity int             `json:"capacity"`
	Entries  []entryState[V] `json:"entries"`
}

type snapshotState[K cmp.Ordered, V any] struct {
	Vectors []vectorState[K, V] `json:"vectors"`
	Groups  group.State[K]      `json:"groups"`
}

// SaveToWriter writes a snapshot of the current state to w and returns the
// number of bytes written.
func (mv *MultiVector[K, V]) SaveToWriter(w io.Writer) (int, error) {
	mv.mu.Lock()
	state := mv.snapshotLocked()
	codecName := mv.codec.Name()
	compression := mv.compression
	mv.mu.Unlock()

	payload, err := mv.codec.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}

	payload, err = compress(compression, payload)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	n := 0

	write := func(p []byte) error {
		if err != nil {
			return err
		}
		var wn int
		wn, err = bw.Write(p)
		n += wn
		return err
	}

	_ = write(snapshotMagic[:])
	_ = write([]byte{snapshotVersion, byte(compression), byte(len(codecName))})
	_ = write([]byte(codecName))
	_ = write(binary.BigEndian.AppendUint64(nil, uint64(len(payload))))
	_ = write(payload)
	_ = write(binary.BigEndian.AppendUint32(nil, crc32.ChecksumIEEE(payload)))
	if err != nil {
		return n, fmt.Errorf("write snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("write snapshot: %w", err)
	}

	return n, nil
}

// SaveToFile writes a snapshot to path, creating or truncating the file.
// The file is fsynced before close so a crash cannot leave a torn snapshot
// behind a successful return.
func (mv *MultiVector[K, V]) SaveToFile(path string) error {
	start := time.Now()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}

	n, err := mv.SaveToWriter(f)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	mv.metrics.RecordSnapshot(n, time.Since(start), err)
	mv.logger.LogSnapshot(path, n, err)
	return err
}

// snapshotLocked captures a deep, serializable copy of the current state.
// Callers hold mv.mu.
func (mv *MultiVector[K, V]) snapshotLocked() snapshotState[K, V] {
	names := mv.table.names()
	state := snapshotState[K, V]{
		Vectors: make([]vectorState[K, V], 0, len(names)),
		Groups:  mv.groups.Snapshot(),
	}
	for _, name := range names {
		v, _ := mv.table.get(name)
		vs := vectorState[K, V]{
			Name:     name,
			Capacity: v.Capacity(),
			Entries:  make([]entryState[V], 0, v.Len()),
		}
		for e := range v.All() {
			vs.Entries = append(vs.Entries, entryState[V]{Start: e.Start, Size: e.Size, Value: e.Value})
		}
		state.Vectors = append(state.Vectors, vs)
	}
	return state
}

// NewFromReader loads a snapshot written by SaveToWriter. Codec and
// compression come from the snapshot header; WithCodec/WithCompression on
// optFns only affect future saves.
func NewFromReader[K cmp.Ordered, V any](r io.Reader, optFns ...Option) (*MultiVector[K, V], error) {
	state, err := readSnapshot[K, V](r)
	if err != nil {
		return nil, err
	}

	mv := New[K, V](optFns...)
	if err := mv.restore(state); err != nil {
		return nil, err
	}
	return mv, nil
}

// NewFromFile loads a snapshot from path.
func NewFromFile[K cmp.Ordered, V any](path string, optFns ...Option) (*MultiVector[K, V], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	return NewFromReader[K, V](f, optFns...)
}

func readSnapshot[K cmp.Ordered, V any](r io.Reader) (snapshotState[K, V], error) {
	var state snapshotState[K, V]
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return state, fmt.Errorf("read snapshot header: %w", err)
	}
	if magic != snapshotMagic {
		return state, ErrBadMagic
	}

	var meta [3]byte // version, compression, codec name length
	if _, err := io.ReadFull(br, meta[:]); err != nil {
		return state, fmt.Errorf("read snapshot header: %w", err)
	}
	if meta[0] != snapshotVersion {
		return state, fmt.Errorf("%w: %d", ErrUnsupportedVersion, meta[0])
	}
	compression := Compression(meta[1])

	name := make([]byte, meta[2])
	if _, err := io.ReadFull(br, name); err != nil {
		return state, fmt.Errorf("read snapshot header: %w", err)
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return state, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}

	var lenBuf [8]byte
	if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
		return state, fmt.Errorf("read snapshot header: %w", err)
	}
	payload := make([]byte, binary.BigEndian.Uint64(lenBuf[:]))
	if _, err := io.ReadFull(br, payload); err != nil {
		return state, fmt.Errorf("read snapshot payload: %w", err)
	}

	var crcBuf [4]byte
	if _, err := io.ReadFull(br, crcBuf[:]); err != nil {
		return state, fmt.Errorf("read snapshot checksum: %w", err)
	}
	expected := binary.BigEndian.Uint32(crcBuf[:])
	if actual := crc32.ChecksumIEEE(payload); actual != expected {
		return state, &ChecksumMismatchError{Expected: expected, Actual: actual}
	}

	payload, err := decompress(compression, payload)
	if err != nil {
		return state, err
	}
	if err := c.Unmarshal(payload, &state); err != nil {
		return state, fmt.Errorf("decode snapshot: %w", err)
	}

	return state, nil
}

// restore rebuilds the full state from a decoded snapshot and verifies the
// table and registry agree before the instance is handed out.
func (mv *MultiVector[K, V]) restore(state snapshotState[K, V]) error {
	for _, vs := range state.Vectors {
		if err := mv.table.create(vs.Name, vs.Capacity); err != nil {
			return fmt.Errorf("restore vector %v: %w", vs.Name, err)
		}
		v, _ := mv.table.get(vs.Name)
		for _, e := range vs.Entries {
			if err := v.Insert(e.Start, e.Size, e.Value); err != nil {
				return fmt.Errorf("restore entry %v@%d: %w", vs.Name, e.Start, translateError(err))
			}
		}
	}
	mv.groups.Restore(state.Groups)

	if got, want := mv.groups.MemberCount(), mv.table.len(); got != want {
		return fmt.Errorf("%w: snapshot tracks %d members for %d entries", ErrInvariantViolation, got, want)
	}
	for _, g := range state.Groups.Groups {
		for _, m := range g.Members {
			v, ok := mv.table.get(m.Vector)
			if !ok {
				return fmt.Errorf("%w: snapshot group %d references missing vector %v", ErrInvariantViolation, g.ID, m.Vector)
			}
			e, ok := v.EntryAt(m.Start)
			if !ok || e.Start != m.Start {
				return fmt.Errorf("%w: snapshot group %d references missing entry %v@%d", ErrInvariantViolation, g.ID, m.Vector, m.Start)
			}
		}
	}

	return nil
}

func compress(c Compression, payload []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd compress: %w", err)
		}
		out := enc.EncodeAll(payload, nil)
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("zstd compress: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}

func decompress(c Compression, payload []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return out, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}
