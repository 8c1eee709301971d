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

func TestNPDURoundTripDirect(t *testing.T) {
	frame := EncodeNPDU(true, NPDUControlPriorityUrgent)
	npdu, n, err := DecodeNPDU(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.NotZero(t, npdu.Control&NPDUControlExpectingReply)
	assert.Equal(t, NPDUControlPriorityUrgent, npdu.Control&0x03)
	assert.Zero(t, npdu.Control&NPDUControlDestSpecifier)
}

func TestNPDURoundTripWithDestination(t *testing.T) {
	destAddr := []byte{0x01, 0x02}
	frame := EncodeNPDUWithDest(5, destAddr, 255, false, NPDUControlPriorityNormal)
	npdu, n, err := DecodeNPDU(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.EqualValues(t, 5, npdu.DestNet)
	assert.Equal(t, destAddr, npdu.DestAddr)
	assert.EqualValues(t, 255, npdu.DestHopCount)
}

func TestDecodeNPDURejectsUnsupportedVersion(t *testing.T) {
	_, _, err := DecodeNPDU([]byte{0x02, 0x00})
	assert.ErrorIs(t, err, ErrInvalidNPDU)
}

func TestDecodeNPDURejectsTruncatedInput(t *testing.T) {
	_, _, err := DecodeNPDU([]byte{0x01})
	assert.ErrorIs(t, err, ErrInvalidNPDU)
}

func TestDecodeNPDUCarriesAPDUData(t *testing.T) {
	frame := append(EncodeNPDU(false, NPDUControlPriorityNormal), 0xDE, 0xAD)
	npdu, n, err := DecodeNPDU(frame)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD}, npdu.Data)
	assert.Equal(t, len(frame)-2, n)
}
