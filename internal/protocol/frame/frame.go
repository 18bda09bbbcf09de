package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

// Wire identity for the conductor admin channel.
const (
	Magic          uint32 = 0xC0ADC7F1
	Version        uint16 = 1
	FixedHeaderLen        = 24
)

// Kind discriminates admin channel frames.
type Kind uint16

const (
	KindRequest Kind = iota + 1
	KindResponse
	KindError
	KindClose
)

func (k Kind) Valid() bool {
	return k >= KindRequest && k <= KindClose
}

var (
	ErrShortHeader     = errors.New("frame: short fixed header")
	ErrBadMagic        = errors.New("frame: bad magic")
	ErrBadVersion      = errors.New("frame: unsupported version")
	ErrBadKind         = errors.New("frame: unknown frame kind")
	ErrAuthTooLarge    = errors.New("frame: auth too large")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Frame is one complete admin channel message. Auth carries the setup's
// shared token bytes; Payload is opaque to the transport.
type Frame struct {
	Kind      Kind
	MessageID uint64
	Auth      []byte
	Payload   []byte
}

// Limits bounds decode/encode memory use.
type Limits struct {
	MaxAuthBytes    uint32
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxAuthBytes:    4 * 1024,
		MaxPayloadBytes: 16 * 1024 * 1024,
	}
}

// ReadFrame reads exactly one frame, enforcing limits before allocating.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [FixedHeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	if binary.BigEndian.Uint32(fixed[0:4]) != Magic {
		return Frame{}, ErrBadMagic
	}
	if binary.BigEndian.Uint16(fixed[4:6]) != Version {
		return Frame{}, ErrBadVersion
	}
	kind := Kind(binary.BigEndian.Uint16(fixed[6:8]))
	if !kind.Valid() {
		return Frame{}, ErrBadKind
	}
	messageID := binary.BigEndian.Uint64(fixed[8:16])
	authLen := binary.BigEndian.Uint32(fixed[16:20])
	payloadLen := binary.BigEndian.Uint32(fixed[20:24])

	if authLen > limits.MaxAuthBytes {
		return Frame{}, ErrAuthTooLarge
	}
	if payloadLen > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	f := Frame{Kind: kind, MessageID: messageID}
	if authLen > 0 {
		f.Auth = make([]byte, authLen)
		if _, err := io.ReadFull(r, f.Auth); err != nil {
			return Frame{}, err
		}
	}
	if payloadLen > 0 {
		f.Payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return Frame{}, err
		}
	}
	return f, nil
}

// WriteFrame writes one frame as a single header/auth/payload sequence.
func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	if !f.Kind.Valid() {
		return ErrBadKind
	}
	if uint64(len(f.Auth)) > uint64(limits.MaxAuthBytes) {
		return ErrAuthTooLarge
	}
	if uint64(len(f.Payload)) > uint64(limits.MaxPayloadBytes) {
		return ErrPayloadTooLarge
	}

	buf := make([]byte, FixedHeaderLen, FixedHeaderLen+len(f.Auth)+len(f.Payload))
	binary.BigEndian.PutUint32(buf[0:4], Magic)
	binary.BigEndian.PutUint16(buf[4:6], Version)
	binary.BigEndian.PutUint16(buf[6:8], uint16(f.Kind))
	binary.BigEndian.PutUint64(buf[8:16], f.MessageID)
	binary.BigEndian.PutUint32(buf[16:20], uint32(len(f.Auth)))
	binary.BigEndian.PutUint32(buf[20:24], uint32(len(f.Payload)))
	buf = append(buf, f.Auth...)
	buf = append(buf, f.Payload...)

	_, err := w.Write(buf)
	return err
}
