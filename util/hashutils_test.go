package util

import "testing"

func TestHashConsistency(t *testing.T) {
	data := []byte("788788")
	if HashCode(data) != HashCode(data) {
		t.Errorf("hash should be deterministic")
	}
}

func TestHashCodeDiffersOnDifferentInput(t *testing.T) {
	if HashCode([]byte("a")) == HashCode([]byte("b")) {
		t.Errorf("distinct inputs should not collide for this test vector")
	}
}

func TestConvertUInt4BytesIsLittleEndian(t *testing.T) {
	buf := ConvertUInt4Bytes(0x01020304)
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if len(buf) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(buf))
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d: expected %#x, got %#x", i, want[i], buf[i])
		}
	}
}
