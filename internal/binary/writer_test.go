package binary

import (
	"bytes"
	"testing"
)

func TestSafeWriter_WriteString(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := NewSafeWriter(buf)

	err := sw.WriteString("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []byte("test")
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("expected %v, got %v", expected, buf.Bytes())
	}
}

func TestSafeWriter_WriteBytes(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := NewSafeWriter(buf)

	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	err := sw.WriteBytes(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("expected %v, got %v", data, buf.Bytes())
	}
}

func TestSafeWriter_WriteLEUint16(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := NewSafeWriter(buf)

	err := WriteLE[uint16](sw, 0x1234)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Little-endian: least significant byte first
	expected := []byte{0x34, 0x12}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("expected %v, got %v", expected, buf.Bytes())
	}
}

func TestSafeWriter_WriteLEUint32(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := NewSafeWriter(buf)

	err := WriteLE[uint32](sw, 0x12345678)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []byte{0x78, 0x56, 0x34, 0x12}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("expected %v, got %v", expected, buf.Bytes())
	}
}

func TestSafeWriter_WriteLEUint64(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := NewSafeWriter(buf)

	err := WriteLE[uint64](sw, 0x0102030405060708)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("expected %v, got %v", expected, buf.Bytes())
	}
}

func TestSafeWriter_WriteLEUint8(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := NewSafeWriter(buf)

	err := WriteLE[uint8](sw, 0x42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []byte{0x42}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("expected %v, got %v", expected, buf.Bytes())
	}
}

func TestSafeWriter_MultipleWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := NewSafeWriter(buf)

	_ = WriteLE[uint8](sw, 0x01)
	_ = WriteLE[uint16](sw, 0x0302)
	_ = sw.WriteString("AB")
	_ = WriteLE[uint32](sw, 0x07060504)

	expected := []byte{0x01, 0x02, 0x03, 'A', 'B', 0x04, 0x05, 0x06, 0x07}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("expected %v, got %v", expected, buf.Bytes())
	}
}
