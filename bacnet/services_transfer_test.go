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

func TestConfirmedPrivateTransferRequestRoundTripWithParameters(t *testing.T) {
	req := ConfirmedPrivateTransferRequest{
		VendorID:          260,
		ServiceNumber:     7,
		ServiceParameters: []byte{0x01, 0x02, 0x03},
	}
	decoded, err := DecodeConfirmedPrivateTransferRequest(EncodeConfirmedPrivateTransferRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestConfirmedPrivateTransferRequestRoundTripNoParameters(t *testing.T) {
	req := ConfirmedPrivateTransferRequest{VendorID: 260, ServiceNumber: 7}
	decoded, err := DecodeConfirmedPrivateTransferRequest(EncodeConfirmedPrivateTransferRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
	assert.Nil(t, decoded.ServiceParameters)
}

func TestConfirmedPrivateTransferAckRoundTrip(t *testing.T) {
	ack := ConfirmedPrivateTransferAck{
		VendorID:      260,
		ServiceNumber: 7,
		ResultBlock:   []byte{0xAA},
	}
	decoded, err := DecodeConfirmedPrivateTransferAck(EncodeConfirmedPrivateTransferAck(ack))
	require.NoError(t, err)
	assert.Equal(t, ack, decoded)
}

func TestConstructedBlockBytesHandlesNestedTags(t *testing.T) {
	// A service-parameters block that itself contains a nested
	// opening/closing pair must round-trip without being mistaken for
	// the outer block's terminator.
	inner := append(EncodeOpeningTag(9), append(EncodeUnsignedTag(5), EncodeClosingTag(9)...)...)
	req := ConfirmedPrivateTransferRequest{VendorID: 1, ServiceNumber: 2, ServiceParameters: inner}

	decoded, err := DecodeConfirmedPrivateTransferRequest(EncodeConfirmedPrivateTransferRequest(req))
	require.NoError(t, err)
	assert.Equal(t, inner, decoded.ServiceParameters)
}
