// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bacnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicReadFileRequestRoundTripStream(t *testing.T) {
	req := AtomicReadFileRequest{
		FileObjectID: NewObjectIdentifier(ObjectTypeFile, 1),
		AccessKind:   FileAccessStream,
		StartPos:     10,
		Count:        100,
	}
	decoded, err := DecodeAtomicReadFileRequest(EncodeAtomicReadFileRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestAtomicReadFileRequestRoundTripRecord(t *testing.T) {
	req := AtomicReadFileRequest{
		FileObjectID: NewObjectIdentifier(ObjectTypeFile, 1),
		AccessKind:   FileAccessRecord,
		StartPos:     -5,
		Count:        3,
	}
	decoded, err := DecodeAtomicReadFileRequest(EncodeAtomicReadFileRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestAtomicReadFileAckRoundTripStream(t *testing.T) {
	ack := AtomicReadFileAck{
		EndOfFile:  true,
		AccessKind: FileAccessStream,
		StartPos:   0,
		StreamData: []byte("hello"),
	}
	decoded, err := DecodeAtomicReadFileAck(EncodeAtomicReadFileAck(ack))
	require.NoError(t, err)
	assert.Equal(t, ack, decoded)
}

func TestAtomicReadFileAckRoundTripRecords(t *testing.T) {
	ack := AtomicReadFileAck{
		EndOfFile:  false,
		AccessKind: FileAccessRecord,
		StartPos:   2,
		Records:    [][]byte{{0x01}, {0x02, 0x03}},
	}
	decoded, err := DecodeAtomicReadFileAck(EncodeAtomicReadFileAck(ack))
	require.NoError(t, err)
	assert.Equal(t, ack, decoded)
}

func TestAtomicWriteFileRequestRoundTripStream(t *testing.T) {
	req := AtomicWriteFileRequest{
		FileObjectID: NewObjectIdentifier(ObjectTypeFile, 2),
		AccessKind:   FileAccessStream,
		StartPos:     0,
		StreamData:   []byte("payload"),
	}
	decoded, err := DecodeAtomicWriteFileRequest(EncodeAtomicWriteFileRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestAtomicWriteFileAckRoundTrip(t *testing.T) {
	ack := AtomicWriteFileAck{AccessKind: FileAccessRecord, StartPos: 42}
	decoded, err := DecodeAtomicWriteFileAck(EncodeAtomicWriteFileAck(ack))
	require.NoError(t, err)
	assert.Equal(t, ack, decoded)
}
