package binary

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestReadLE(t *testing.T) {
	buf := &bytes.Buffer{}

	// uint16: 0x0201 (little-endian) = 513 (decimal)
	binary.Write(buf, binary.LittleEndian, uint16(513))

	// uint32: 0x04030201 (little-endian) = 67305985 (decimal)
	binary.Write(buf, binary.LittleEndian, uint32(67305985))

	// uint64: 0x0807060504030201 (little-endian)
	binary.Write(buf, binary.LittleEndian, uint64(578437695752307201))

	data := buf.Bytes()
	sr := NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.opus")

	tests := []struct {
		readFunc func() (uint64, error)
		name     string
		want     uint64
	}{
		{
			name: "uint16 little-endian",
			want: 513,
			readFunc: func() (uint64, error) {
				val, err := ReadLE[uint16](sr, 0, "uint16")
				return uint64(val), err
			},
		},
		{
			name: "uint32 little-endian",
			want: 67305985,
			readFunc: func() (uint64, error) {
				val, err := ReadLE[uint32](sr, 2, "uint32")
				return uint64(val), err
			},
		},
		{
			name: "uint64 little-endian",
			want: 578437695752307201,
			readFunc: func() (uint64, error) {
				val, err := ReadLE[uint64](sr, 6, "uint64")
				return uint64(val), err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.readFunc()
			if err != nil {
				t.Fatalf("ReadLE failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadLE() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReadLE_Uint8(t *testing.T) {
	data := []byte{0x42}
	sr := NewSafeReader(bytes.NewReader(data), int64(len(data)), "test")

	val, err := ReadLE[uint8](sr, 0, "byte")
	if err != nil {
		t.Fatalf("ReadLE uint8 failed: %v", err)
	}
	if val != 0x42 {
		t.Errorf("expected 0x42, got 0x%02x", val)
	}
}

func BenchmarkReadLE_Uint32(b *testing.B) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	sr := NewSafeReader(bytes.NewReader(data), int64(len(data)), "bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ReadLE[uint32](sr, 0, "uint32")
	}
}
