package internal

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected int
	}{
		{
			name:     "Command with key and value",
			command:  Command{Type: CommandTSet, Key: "record/1", Value: []byte("testvalue")},
			expected: 1 + 4 + 8 + 9, // Type + KeyLen + Key + Value
		},
		{
			name:     "Command without value",
			command:  Command{Type: CommandTIncrement, Key: "__id_counter"},
			expected: 1 + 4 + 12,
		},
		{
			name:     "Command with empty key",
			command:  Command{Type: CommandTSet, Value: []byte("v")},
			expected: 1 + 4 + 0 + 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if size := tt.command.SizeBytes(); size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
		})
	}
}

func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{"Set with value", Command{Type: CommandTSet, Key: "record/00000000000000000001", Value: []byte("testvalue")}},
		{"SetIfPresent", Command{Type: CommandTSetIfPresent, Key: "record/00000000000000000002", Value: []byte("new")}},
		{"Delete without value", Command{Type: CommandTDelete, Key: "record/00000000000000000003"}},
		{"Increment", Command{Type: CommandTIncrement, Key: "__id_counter"}},
		{"Empty key", Command{Type: CommandTSet, Key: "", Value: []byte("testvalue")}},
		{"Binary value", Command{Type: CommandTSet, Key: "binary", Value: []byte{0, 1, 2, 3, 254, 255}}},
		{"Unicode key", Command{Type: CommandTSet, Key: "pasien/Budi Santoso/你好", Value: []byte("unicode test")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.command.Serialize()

			var got Command
			if err := got.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}

			if got.Type != tt.command.Type {
				t.Errorf("Type mismatch: got %v, want %v", got.Type, tt.command.Type)
			}
			if got.Key != tt.command.Key {
				t.Errorf("Key mismatch: got %q, want %q", got.Key, tt.command.Key)
			}
			if !bytes.Equal(got.Value, tt.command.Value) {
				t.Errorf("Value mismatch: got %v, want %v", got.Value, tt.command.Value)
			}
			if tt.command.SizeBytes() != len(data) {
				t.Errorf("SizeBytes() = %d, but serialized data length = %d", tt.command.SizeBytes(), len(data))
			}
		})
	}
}

func TestDeserializeCopiesValue(t *testing.T) {
	data := (&Command{Type: CommandTSet, Key: "k", Value: []byte("value")}).Serialize()

	var cmd Command
	if err := cmd.Deserialize(data); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	data[len(data)-1] = 'X'

	if string(cmd.Value) != "value" {
		t.Errorf("Deserialize must not alias the input buffer, got %q", cmd.Value)
	}
}

func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expectedErr string
	}{
		{"Empty data", []byte{}, "data too short for command"},
		{"Data too short (less than header)", []byte{1, 2, 3}, "data too short for command"},
		{
			name: "Invalid key length",
			data: func() []byte {
				data := make([]byte, headerSize)
				data[0] = byte(CommandTSet)
				binary.BigEndian.PutUint32(data[1:5], 1000)
				return data
			}(),
			expectedErr: "data too short for key of length 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd Command
			err := cmd.Deserialize(tt.data)
			if err == nil {
				t.Fatalf("Expected error but got nil")
			}
			if err.Error() != tt.expectedErr {
				t.Errorf("Expected error %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

func TestBinaryFormat(t *testing.T) {
	cmd := Command{Type: CommandTSetIfPresent, Key: "testkey", Value: []byte("testvalue")}

	expected := make([]byte, cmd.SizeBytes())
	expected[0] = byte(CommandTSetIfPresent)
	binary.BigEndian.PutUint32(expected[1:5], 7)
	copy(expected[5:12], "testkey")
	copy(expected[12:], "testvalue")

	if serialized := cmd.Serialize(); !bytes.Equal(serialized, expected) {
		t.Errorf("Binary format does not match:\nGot:      %v\nExpected: %v", serialized, expected)
	}
}

func TestFoundEncoding(t *testing.T) {
	found, value, err := DecodeFound(EncodeFound(true, []byte("old")))
	if err != nil || !found || string(value) != "old" {
		t.Errorf("DecodeFound(EncodeFound(true, old)) = %v, %q, %v", found, value, err)
	}

	found, value, err = DecodeFound(EncodeFound(false, nil))
	if err != nil || found || value != nil {
		t.Errorf("DecodeFound(EncodeFound(false, nil)) = %v, %q, %v", found, value, err)
	}

	if _, _, err := DecodeFound(nil); err == nil {
		t.Errorf("DecodeFound(nil) should fail")
	}
}

func TestCommandFeatures(t *testing.T) {
	for _, ct := range []CommandType{CommandTSet, CommandTSetIfPresent, CommandTDelete, CommandTIncrement} {
		if _, err := ct.ToDBFeature(); err != nil {
			t.Errorf("ToDBFeature(%s) error = %v", ct, err)
		}
	}
	if _, err := CommandType(200).ToDBFeature(); err == nil {
		t.Errorf("ToDBFeature should fail for unknown command types")
	}
}
