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

func TestConfirmedRequestRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	frame := EncodeConfirmedRequest(7, ServiceReadProperty, data, 0, ownMaxAPDUCode)

	apdu, err := DecodeAPDU(frame)
	require.NoError(t, err)
	assert.Equal(t, PDUTypeConfirmedRequest, apdu.Type)
	assert.EqualValues(t, 7, apdu.InvokeID)
	assert.EqualValues(t, ServiceReadProperty, apdu.Service)
	assert.Equal(t, data, apdu.Data)
	assert.False(t, apdu.Segmented)
}

func TestSegmentedConfirmedRequestRoundTrip(t *testing.T) {
	data := []byte{0xAA, 0xBB}
	frame := EncodeSegmentedConfirmedRequest(9, ServiceReadProperty, data, 3, 5, 0, ownMaxAPDUCode, true)

	apdu, err := DecodeAPDU(frame)
	require.NoError(t, err)
	assert.True(t, apdu.Segmented)
	assert.True(t, apdu.MoreFollows)
	assert.EqualValues(t, 3, apdu.SequenceNum)
	assert.EqualValues(t, 5, apdu.WindowSize)
	assert.Equal(t, data, apdu.Data)
}

func TestSimpleAckRoundTrip(t *testing.T) {
	frame := EncodeSimpleAck(42, ServiceWriteProperty)
	apdu, err := DecodeAPDU(frame)
	require.NoError(t, err)
	assert.Equal(t, PDUTypeSimpleAck, apdu.Type)
	assert.EqualValues(t, 42, apdu.InvokeID)
}

func TestSegmentAckRoundTrip(t *testing.T) {
	frame := EncodeSegmentAck(11, true, false, true, 4, 16)
	apdu, err := DecodeAPDU(frame)
	require.NoError(t, err)
	assert.Equal(t, PDUTypeSegmentAck, apdu.Type)
	assert.True(t, apdu.ServerOrigin)
	assert.False(t, apdu.SegAckNak)
	assert.EqualValues(t, 4, apdu.SequenceNum)
	assert.EqualValues(t, 16, apdu.WindowSize)
}

func TestSegmentAckNegative(t *testing.T) {
	frame := EncodeSegmentAck(11, false, true, false, 2, 1)
	apdu, err := DecodeAPDU(frame)
	require.NoError(t, err)
	assert.True(t, apdu.SegAckNak)
}

func TestRejectRoundTrip(t *testing.T) {
	frame := EncodeReject(5, RejectReasonBufferOverflow)
	apdu, err := DecodeAPDU(frame)
	require.NoError(t, err)
	assert.Equal(t, PDUTypeReject, apdu.Type)
	assert.Equal(t, RejectReasonBufferOverflow, RejectReason(apdu.RejectReason))
}

func TestAbortRoundTrip(t *testing.T) {
	frame := EncodeAbort(6, true, AbortReasonSegmentationNotSupported)
	apdu, err := DecodeAPDU(frame)
	require.NoError(t, err)
	assert.Equal(t, PDUTypeAbort, apdu.Type)
	assert.True(t, apdu.ServerOrigin)
	assert.Equal(t, AbortReasonSegmentationNotSupported, AbortReason(apdu.AbortReason))
}

func TestMaxAPDUOctets(t *testing.T) {
	assert.Equal(t, 50, MaxAPDUOctets(0))
	assert.Equal(t, 1476, MaxAPDUOctets(5))
}
