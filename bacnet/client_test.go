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
)

func TestNextInvokeIDNeverReturnsZero(t *testing.T) {
	c := &Client{}
	c.invokeID.Store(0xFE) // one step from wrapping through zero

	first := c.nextInvokeID()
	second := c.nextInvokeID()

	assert.EqualValues(t, 0xFF, first)
	assert.NotZero(t, second, "invoke-id must skip the reserved value 0 on wraparound")
}

func TestNextInvokeIDWrapsAndSkipsZero(t *testing.T) {
	c := &Client{}
	c.invokeID.Store(0xFF)

	id := c.nextInvokeID()
	assert.NotZero(t, id)
}

func TestSegmentPayloadFloorAndCeiling(t *testing.T) {
	assert.Equal(t, 1471, segmentPayload(1476))
	assert.Equal(t, 1471, segmentPayload(0), "unknown device max-APDU falls back to this client's own ceiling")
	assert.Equal(t, 32, segmentPayload(20), "payload size never drops below the 32-byte floor")
	assert.Equal(t, 45, segmentPayload(50))
}

func TestConnectionStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
}
