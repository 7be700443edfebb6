package serializer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":    NewJSONSerializer,
	"GOB":     NewGOBSerializer,
	"Binary":  NewBinarySerializer,
	"Msgpack": NewMsgpackSerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Add request
		{
			MsgType:   common.MsgTRecAdd,
			Name:      "Siti Aminah",
			Complaint: "batuk",
		},

		// Get response
		{
			MsgType: common.MsgTRecGet,
			Records: []records.Record{{ID: 1, Name: "A", Complaint: "cough"}},
		},

		// List request and response
		{
			MsgType: common.MsgTRecList,
			After:   10,
			Limit:   3,
		},
		{
			MsgType: common.MsgTRecList,
			Records: []records.Record{
				{ID: 11, Name: "B", Complaint: "fever"},
				{ID: 12, Name: "", Complaint: ""},
				{ID: 13, Name: "名前", Complaint: "multi\nline"},
			},
		},

		// Not found response
		{
			MsgType: common.MsgTRecUpdate,
			Code:    common.ErrCNotFound,
			Err:     "Couldn't update patient record with id=4. Record not found",
		},

		// Message with all fields filled
		{
			MsgType:   common.MsgTRecUpdate,
			ID:        1<<64 - 1,
			After:     42,
			Limit:     1000,
			Name:      "complete",
			Complaint: "all fields",
			Records:   []records.Record{{ID: 7, Name: "x", Complaint: "y"}},
			Code:      common.ErrCInternal,
			Err:       "test error message",
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTSuccess; msgType <= common.MsgTRecList; msgType++ {
				data, err := serializer.Serialize(common.Message{MsgType: msgType})
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestDeserializeResetsMessage checks that reused messages do not keep fields of earlier ones
func TestDeserializeResetsMessage(t *testing.T) {
	for _, name := range []string{"Binary", "Msgpack"} {
		t.Run(name, func(t *testing.T) {
			serializer := testSerializers[name]()

			data, err := serializer.Serialize(common.Message{MsgType: common.MsgTRecDelete, ID: 3})
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			msg := common.Message{Name: "stale", Err: "stale", Records: []records.Record{{ID: 9}}}
			if err := serializer.Deserialize(data, &msg); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if !reflect.DeepEqual(msg, common.Message{MsgType: common.MsgTRecDelete, ID: 3}) {
				t.Errorf("stale fields survived: %+v", msg)
			}
		})
	}
}

// TestBinaryOmitsZeroFields checks the flag based encoding of absent fields
func TestBinaryOmitsZeroFields(t *testing.T) {
	serializer := NewBinarySerializer()

	data, err := serializer.Serialize(common.Message{MsgType: common.MsgTRecGet})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	if len(data) != 2 || data[1] != 0 {
		t.Errorf("expected header only, got %v", data)
	}

	data, err = serializer.Serialize(common.Message{MsgType: common.MsgTRecGet, ID: 1})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	if len(data) != 10 || data[1] != hasID {
		t.Errorf("expected header and id, got %v", data)
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError string
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: "header",
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only message type, no flags
			expectError: "header",
		},
		{
			name: "Valid header only",
			data: []byte{1, 0}, // Message type 1, no flags
		},
		{
			name:        "Truncated id",
			data:        []byte{3, hasID, 0, 0, 0, 1},
			expectError: "ID",
		},
		{
			name:        "Invalid length for name",
			data:        []byte{4, hasName, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims length 5 but only 3 bytes provided
			expectError: "Name",
		},
		{
			name:        "Record count larger than data",
			data:        []byte{7, hasRecords, 0xff, 0xff, 0xff, 0xff},
			expectError: "records",
		},
		{
			name:        "Missing error code",
			data:        []byte{2, hasCode},
			expectError: "Code",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			switch {
			case tc.expectError != "" && err == nil:
				t.Errorf("Expected error but got none")
			case tc.expectError == "" && err != nil:
				t.Errorf("Did not expect error but got: %v", err)
			case err != nil && !strings.Contains(err.Error(), tc.expectError):
				t.Errorf("Expected error mentioning %q, got: %v", tc.expectError, err)
			}
		})
	}
}
