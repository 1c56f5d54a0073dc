package protocol

import (
	"testing"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0,
		1,
		-1,
		127,
		-127,
		128,
		-128,
		255,
		-255,
		1000,
		-1000,
		65535,
		-65535,
		1000000,
		-1000000,
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}

		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}

		if len(data) != 0 {
			t.Errorf("VLQ decode didn't consume all bytes for value %d: %d bytes remaining", expected, len(data))
		}
	}
}

func TestVLQEncodeDecodeUint(t *testing.T) {
	testCases := []uint32{
		0,
		1,
		127,
		128,
		255,
		1000,
		65535,
		1000000,
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQUint(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}

		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}
	}
}

func TestVLQString(t *testing.T) {
	testCases := []string{
		"",
		"hello",
		"Hello, World!",
		"Special chars: !@#$%^&*()",
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQString(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQString(&data)
		if err != nil {
			t.Errorf("Failed to decode string '%s': %v", expected, err)
			continue
		}

		if decoded != expected {
			t.Errorf("String mismatch: expected '%s', got '%s'", expected, decoded)
		}
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	// Test decoding with insufficient data
	data := []byte{0x80} // Continuation byte but no following byte
	_, err := DecodeVLQInt(&data)
	if err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}

func TestVLQTooLong(t *testing.T) {
	// Six continuation bytes cannot hold a 32-bit value
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	_, err := DecodeVLQInt(&data)
	if err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}

func TestVLQSingleByteRange(t *testing.T) {
	for _, v := range []int32{-32, 0, 95} {
		output := NewScratchOutput()
		EncodeVLQInt(output, v)
		if n := len(output.Result()); n != 1 {
			t.Errorf("EncodeVLQInt(%d) used %d bytes, expected 1", v, n)
		}
	}
	for _, v := range []int32{-33, 96} {
		output := NewScratchOutput()
		EncodeVLQInt(output, v)
		if n := len(output.Result()); n != 2 {
			t.Errorf("EncodeVLQInt(%d) used %d bytes, expected 2", v, n)
		}
	}
}

func TestVLQFullRange(t *testing.T) {
	for _, v := range []uint32{0x40020000, 0x40023830, 0xFFFFFFFF, 0x80000000} {
		output := NewScratchOutput()
		EncodeVLQUint(output, v)
		data := output.Result()
		decoded, err := DecodeVLQUint(&data)
		if err != nil || decoded != v {
			t.Errorf("VLQ round trip of %#x gave %#x, err %v", v, decoded, err)
		}
	}
}

func TestVLQStringTruncated(t *testing.T) {
	data := []byte{5, 'a', 'b'}
	if _, err := DecodeVLQString(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}
