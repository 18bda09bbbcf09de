package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	in := Frame{
		Kind:      KindRequest,
		MessageID: 42,
		Auth:      []byte("token"),
		Payload:   []byte(`{"type":"list_cells"}`),
	}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, in, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	out, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if out.Kind != in.Kind || out.MessageID != in.MessageID {
		t.Fatalf("header mismatch: got=%+v want=%+v", out, in)
	}
	if string(out.Auth) != "token" {
		t.Fatalf("auth mismatch: %q", string(out.Auth))
	}
	if !bytes.Equal(out.Payload, in.Payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestReadFrameShortHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestReadFrameBadMagic(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Kind: KindClose, MessageID: 1}, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	raw := buf.Bytes()
	binary.BigEndian.PutUint32(raw[0:4], 0xDEADBEEF)
	_, err := ReadFrame(bytes.NewReader(raw), DefaultLimits())
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestReadFrameBadVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Kind: KindClose, MessageID: 1}, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	raw := buf.Bytes()
	binary.BigEndian.PutUint16(raw[4:6], Version+1)
	_, err := ReadFrame(bytes.NewReader(raw), DefaultLimits())
	if !errors.Is(err, ErrBadVersion) {
		t.Fatalf("expected ErrBadVersion, got %v", err)
	}
}

func TestWriteFrameRejectsUnknownKind(t *testing.T) {
	err := WriteFrame(&bytes.Buffer{}, Frame{Kind: 0, MessageID: 1}, DefaultLimits())
	if !errors.Is(err, ErrBadKind) {
		t.Fatalf("expected ErrBadKind, got %v", err)
	}
}

func TestFrameLimitsEnforced(t *testing.T) {
	limits := Limits{MaxAuthBytes: 4, MaxPayloadBytes: 8}

	err := WriteFrame(&bytes.Buffer{}, Frame{Kind: KindRequest, Auth: []byte("too-long")}, limits)
	if !errors.Is(err, ErrAuthTooLarge) {
		t.Fatalf("expected ErrAuthTooLarge, got %v", err)
	}

	err = WriteFrame(&bytes.Buffer{}, Frame{Kind: KindRequest, Payload: bytes.Repeat([]byte("x"), 9)}, limits)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Kind: KindRequest, Payload: []byte("123456789")}, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	_, err = ReadFrame(&buf, limits)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge on read, got %v", err)
	}
}
