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

// DeviceCommunicationState is the enable/disable selector carried by a
// DeviceCommunicationControl request.
type DeviceCommunicationState uint32

const (
	CommunicationEnable DeviceCommunicationState = iota
	CommunicationDisable
	CommunicationDisableInitiation
)

// ReinitializeState is the target state carried by a
// ReinitializeDevice request.
type ReinitializeState uint32

const (
	ReinitializeColdstart ReinitializeState = iota
	ReinitializeWarmstart
	ReinitializeStartBackup
	ReinitializeEndBackup
	ReinitializeStartRestore
	ReinitializeEndRestore
	ReinitializeAbortRestore
	ReinitializeActivateChanges
)

// DeviceCommunicationControlRequest is the body of a
// DeviceCommunicationControl request.
type DeviceCommunicationControlRequest struct {
	TimeDurationSeconds *uint16
	EnableDisable       DeviceCommunicationState
	Password            *string
}

// EncodeDeviceCommunicationControlRequest encodes a
// DeviceCommunicationControl request body.
func EncodeDeviceCommunicationControlRequest(req DeviceCommunicationControlRequest) []byte {
	w := NewWriter()
	if req.TimeDurationSeconds != nil {
		w.Write(EncodeContextUnsigned(0, uint32(*req.TimeDurationSeconds)))
	}
	w.Write(EncodeContextUnsigned(1, uint32(req.EnableDisable)))
	if req.Password != nil {
		w.Write(EncodeContextCharacterString(2, *req.Password))
	}
	return w.Bytes()
}

// DecodeDeviceCommunicationControlRequest decodes a
// DeviceCommunicationControl request body.
func DecodeDeviceCommunicationControlRequest(data []byte) (DeviceCommunicationControlRequest, error) {
	var req DeviceCommunicationControlRequest
	pos := 0

	if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 0 && !t.Opening {
		duration, n, err := decodeContextUnsigned(data[pos:], 0)
		if err != nil {
			return DeviceCommunicationControlRequest{}, err
		}
		d := uint16(duration)
		req.TimeDurationSeconds = &d
		pos += n
	}

	state, n, err := decodeContextUnsigned(data[pos:], 1)
	if err != nil {
		return DeviceCommunicationControlRequest{}, err
	}
	req.EnableDisable = DeviceCommunicationState(state)
	pos += n

	if pos < len(data) {
		if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 2 {
			off := pos + t.HeaderLen
			if len(data) < off+t.Length {
				return DeviceCommunicationControlRequest{}, ErrBufferUnderrun
			}
			pw, err := DecodeCharacterString(data[off : off+t.Length])
			if err != nil {
				return DeviceCommunicationControlRequest{}, err
			}
			req.Password = &pw
		}
	}

	return req, nil
}

// ReinitializeDeviceRequest is the body of a ReinitializeDevice
// request.
type ReinitializeDeviceRequest struct {
	State    ReinitializeState
	Password *string
}

// EncodeReinitializeDeviceRequest encodes a ReinitializeDevice request
// body.
func EncodeReinitializeDeviceRequest(req ReinitializeDeviceRequest) []byte {
	w := NewWriter()
	w.Write(EncodeContextUnsigned(0, uint32(req.State)))
	if req.Password != nil {
		w.Write(EncodeContextCharacterString(1, *req.Password))
	}
	return w.Bytes()
}

// DecodeReinitializeDeviceRequest decodes a ReinitializeDevice request
// body.
func DecodeReinitializeDeviceRequest(data []byte) (ReinitializeDeviceRequest, error) {
	state, n, err := decodeContextUnsigned(data, 0)
	if err != nil {
		return ReinitializeDeviceRequest{}, err
	}
	req := ReinitializeDeviceRequest{State: ReinitializeState(state)}

	if n < len(data) {
		if t, err := decodeTag(data[n:]); err == nil && t.Class == TagClassContext && t.Number == 1 {
			off := n + t.HeaderLen
			if len(data) < off+t.Length {
				return ReinitializeDeviceRequest{}, ErrBufferUnderrun
			}
			pw, err := DecodeCharacterString(data[off : off+t.Length])
			if err != nil {
				return ReinitializeDeviceRequest{}, err
			}
			req.Password = &pw
		}
	}

	return req, nil
}

// TimeSynchronizationRequest is the body shared by TimeSynchronization
// and UTCTimeSynchronization unconfirmed requests.
type TimeSynchronizationRequest struct {
	Date Date
	Time Time
}

// EncodeTimeSynchronizationRequest encodes a TimeSynchronization or
// UTCTimeSynchronization request body (the two services share a wire
// shape and differ only by service-choice).
func EncodeTimeSynchronizationRequest(req TimeSynchronizationRequest) []byte {
	w := NewWriter()
	w.Write(EncodeTag(uint8(TagDate), TagClassApplication, 4))
	w.Write(EncodeDate(req.Date))
	w.Write(EncodeTag(uint8(TagTime), TagClassApplication, 4))
	w.Write(EncodeTime(req.Time))
	return w.Bytes()
}

// DecodeTimeSynchronizationRequest decodes a TimeSynchronization or
// UTCTimeSynchronization request body.
func DecodeTimeSynchronizationRequest(data []byte) (TimeSynchronizationRequest, error) {
	dateTag, err := decodeTag(data)
	if err != nil || dateTag.Class != TagClassApplication || ApplicationTag(dateTag.Number) != TagDate || dateTag.Length != 4 {
		return TimeSynchronizationRequest{}, ErrInvalidTag
	}
	off := dateTag.HeaderLen
	if len(data) < off+4 {
		return TimeSynchronizationRequest{}, ErrBufferUnderrun
	}
	date, err := DecodeDate(data[off : off+4])
	if err != nil {
		return TimeSynchronizationRequest{}, err
	}
	pos := off + 4

	timeTag, err := decodeTag(data[pos:])
	if err != nil || timeTag.Class != TagClassApplication || ApplicationTag(timeTag.Number) != TagTime || timeTag.Length != 4 {
		return TimeSynchronizationRequest{}, ErrInvalidTag
	}
	off2 := pos + timeTag.HeaderLen
	if len(data) < off2+4 {
		return TimeSynchronizationRequest{}, ErrBufferUnderrun
	}
	t, err := DecodeTime(data[off2 : off2+4])
	if err != nil {
		return TimeSynchronizationRequest{}, err
	}

	return TimeSynchronizationRequest{Date: date, Time: t}, nil
}
