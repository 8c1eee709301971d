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

func TestDeviceCommunicationControlRequestRoundTripMinimal(t *testing.T) {
	req := DeviceCommunicationControlRequest{EnableDisable: CommunicationDisable}
	decoded, err := DecodeDeviceCommunicationControlRequest(EncodeDeviceCommunicationControlRequest(req))
	require.NoError(t, err)
	assert.Equal(t, CommunicationDisable, decoded.EnableDisable)
	assert.Nil(t, decoded.TimeDurationSeconds)
	assert.Nil(t, decoded.Password)
}

func TestDeviceCommunicationControlRequestRoundTripFull(t *testing.T) {
	duration := uint16(300)
	password := "secret"
	req := DeviceCommunicationControlRequest{
		TimeDurationSeconds: &duration,
		EnableDisable:       CommunicationDisableInitiation,
		Password:            &password,
	}
	decoded, err := DecodeDeviceCommunicationControlRequest(EncodeDeviceCommunicationControlRequest(req))
	require.NoError(t, err)
	require.NotNil(t, decoded.TimeDurationSeconds)
	assert.EqualValues(t, 300, *decoded.TimeDurationSeconds)
	assert.Equal(t, CommunicationDisableInitiation, decoded.EnableDisable)
	require.NotNil(t, decoded.Password)
	assert.Equal(t, "secret", *decoded.Password)
}

func TestReinitializeDeviceRequestRoundTrip(t *testing.T) {
	password := "warmup"
	req := ReinitializeDeviceRequest{State: ReinitializeWarmstart, Password: &password}
	decoded, err := DecodeReinitializeDeviceRequest(EncodeReinitializeDeviceRequest(req))
	require.NoError(t, err)
	assert.Equal(t, ReinitializeWarmstart, decoded.State)
	require.NotNil(t, decoded.Password)
	assert.Equal(t, "warmup", *decoded.Password)
}

func TestReinitializeDeviceRequestRoundTripNoPassword(t *testing.T) {
	req := ReinitializeDeviceRequest{State: ReinitializeColdstart}
	decoded, err := DecodeReinitializeDeviceRequest(EncodeReinitializeDeviceRequest(req))
	require.NoError(t, err)
	assert.Equal(t, ReinitializeColdstart, decoded.State)
	assert.Nil(t, decoded.Password)
}

func TestTimeSynchronizationRequestRoundTrip(t *testing.T) {
	req := TimeSynchronizationRequest{
		Date: Date{Year: 126, Month: 7, Day: 31},
		Time: Time{Hour: 14, Minute: 5, Second: 0},
	}
	decoded, err := DecodeTimeSynchronizationRequest(EncodeTimeSynchronizationRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req.Date, decoded.Date)
	assert.Equal(t, req.Time, decoded.Time)
}
