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

func TestEncodeDecodeBVLC(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC}
	frame := EncodeBVLC(BVLCOriginalUnicastNPDU, len(payload))
	frame = append(frame, payload...)

	hdr, err := DecodeBVLC(frame)
	require.NoError(t, err)
	assert.Equal(t, BVLCOriginalUnicastNPDU, hdr.Function)
	assert.Equal(t, len(frame), hdr.Length)
}

func TestDecodeBVLCRejectsLengthMismatch(t *testing.T) {
	frame := EncodeBVLC(BVLCOriginalBroadcastNPDU, 10)
	_, err := DecodeBVLC(frame) // declared length assumes 10 bytes of payload that never got appended
	assert.ErrorIs(t, err, ErrInvalidBVLC)
}

func TestDecodeBVLCRejectsWrongType(t *testing.T) {
	frame := EncodeBVLC(BVLCResult, 0)
	frame[0] = 0xFF
	_, err := DecodeBVLC(frame)
	assert.ErrorIs(t, err, ErrInvalidBVLC)
}

func TestOriginAddressRoundTrip(t *testing.T) {
	ip := [4]byte{192, 168, 1, 42}
	encoded := EncodeOriginAddress(ip, 47808)

	decodedIP, port, err := DecodeOriginAddress(encoded)
	require.NoError(t, err)
	assert.Equal(t, ip, decodedIP)
	assert.EqualValues(t, 47808, port)
}

func TestBDTEntryRoundTrip(t *testing.T) {
	entry := BDTEntry{
		Addr: [4]byte{10, 0, 0, 1},
		Port: 47808,
		Mask: [4]byte{255, 255, 255, 0},
	}
	encoded := EncodeBDTEntry(entry)
	decoded, err := DecodeBDTEntry(encoded)
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestBroadcastDistributionTableAckRoundTrip(t *testing.T) {
	entries := []BDTEntry{
		{Addr: [4]byte{10, 0, 0, 1}, Port: 47808, Mask: [4]byte{255, 255, 255, 0}},
		{Addr: [4]byte{10, 0, 0, 2}, Port: 47808, Mask: [4]byte{255, 255, 255, 0}},
	}
	frame := EncodeWriteBroadcastDistributionTable(entries)

	decoded, err := DecodeBroadcastDistributionTableAck(frame[4:])
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)
}

func TestForeignDeviceTableEntryRoundTrip(t *testing.T) {
	entry := FDTEntry{Addr: [4]byte{10, 1, 1, 1}, Port: 47808, TTL: 300, Remaining: 250}
	encoded := EncodeFDTEntry(entry)
	decoded, err := DecodeFDTEntry(encoded)
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestDecodeBVLCResult(t *testing.T) {
	frame := EncodeDeleteForeignDeviceTableEntry([4]byte{10, 0, 0, 5}, 47808)
	assert.Equal(t, BVLCDeleteForeignDeviceTableEntry, BVLCFunction(frame[1]))

	code, err := DecodeBVLCResult([]byte{0x00, 0x00})
	require.NoError(t, err)
	assert.EqualValues(t, 0, code)

	code, err = DecodeBVLCResult([]byte{0x00, 0x10})
	require.NoError(t, err)
	assert.EqualValues(t, 0x10, code)
}

func TestBvlcResultError(t *testing.T) {
	err := BvlcResult(0x10)
	assert.Contains(t, err.Error(), "16")
}
