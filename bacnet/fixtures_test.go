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
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture 1: Who-Is global. NPDU version 01, control 00; unconfirmed
// request, service-choice Who-Is (0x08), no device-instance range.
func TestFixtureWhoIsGlobal(t *testing.T) {
	frame := []byte{0x01, 0x00, 0x10, 0x08}

	npdu, n, err := DecodeNPDU(frame)
	require.NoError(t, err)
	assert.EqualValues(t, 1, npdu.Version)
	assert.Equal(t, NPDUControl(0), npdu.Control)

	apdu, err := DecodeAPDU(frame[n:])
	require.NoError(t, err)
	assert.Equal(t, PDUTypeUnconfirmedRequest, apdu.Type)
	assert.EqualValues(t, ServiceWhoIs, apdu.Service)

	low, high, err := DecodeWhoIs(apdu.Data)
	require.NoError(t, err)
	assert.Nil(t, low)
	assert.Nil(t, high)
}

// Fixture 2: Read-Property of Device(123).object-name, invoke-id 1.
func TestFixtureReadPropertyDeviceObjectName(t *testing.T) {
	frame := []byte{
		0x01, 0x00, // NPDU
		0x02, 0x05, 0x01, 0x0C, // confirmed-request header
		0x0C, 0x02, 0x00, 0x00, 0x7B, // context-0 object-id (device, 123)
		0x19, 0x4D, // context-1 unsigned property-id 77
	}

	_, n, err := DecodeNPDU(frame)
	require.NoError(t, err)

	apdu, err := DecodeAPDU(frame[n:])
	require.NoError(t, err)
	assert.Equal(t, PDUTypeConfirmedRequest, apdu.Type)
	assert.EqualValues(t, 5, apdu.MaxAPDU)
	assert.EqualValues(t, 1, apdu.InvokeID)
	assert.EqualValues(t, ServiceReadProperty, apdu.Service)

	oid, m, err := decodeContextObjectID(apdu.Data, 0)
	require.NoError(t, err)
	assert.Equal(t, NewObjectIdentifier(ObjectTypeDevice, 123), oid)

	propID, _, err := decodeContextUnsigned(apdu.Data[m:], 1)
	require.NoError(t, err)
	assert.Equal(t, PropertyObjectName, PropertyIdentifier(propID))
}

// Fixture 3: Subscribe-COV, subscriber-process-id=7, object=(analog-input, 2),
// confirmed=false, lifetime=600, invoke-id=17.
func TestFixtureSubscribeCOV(t *testing.T) {
	frame := []byte{
		0x01, 0x00, // NPDU
		0x00, 0x05, 0x11, 0x05, // confirmed-request header, invoke-id 17, service 5
		0x09, 0x07, // context-0 unsigned: subscriber-process-id 7
		0x1C, 0x00, 0x00, 0x00, 0x02, // context-1 object-id (analog-input, 2)
		0x29, 0x00, // context-2 boolean: confirmed=false
		0x3A, 0x02, 0x58, // context-3 unsigned: lifetime 600
	}

	_, n, err := DecodeNPDU(frame)
	require.NoError(t, err)

	apdu, err := DecodeAPDU(frame[n:])
	require.NoError(t, err)
	assert.EqualValues(t, 17, apdu.InvokeID)
	assert.EqualValues(t, ServiceSubscribeCOV, apdu.Service)

	req, err := DecodeSubscribeCOVRequest(apdu.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 7, req.SubscriberProcessID)
	assert.Equal(t, NewObjectIdentifier(ObjectTypeAnalogInput, 2), req.ObjectID)
	require.NotNil(t, req.Confirmed)
	assert.False(t, *req.Confirmed)
	require.NotNil(t, req.Lifetime)
	assert.EqualValues(t, 600, *req.Lifetime)
}

// Fixture 4: Read-Range by position on trend-log 1's present-value,
// reference 1, count 2, invoke-id 4.
func TestFixtureReadRangeByPosition(t *testing.T) {
	frame := []byte{
		0x01, 0x00, // NPDU
		0x02, 0x05, 0x04, 0x1A, // confirmed-request header, invoke-id 4, service ReadRange
		0x0C, 0x05, 0x00, 0x00, 0x01, // context-0 object-id (trend-log, 1)
		0x19, 0x55, // context-1 unsigned property-id 85 (present-value)
		0x3E,       // opening context-3 (by-position selector)
		0x21, 0x01, // application-unsigned 1 (reference index)
		0x31, 0x02, // application-signed 2 (count)
		0x3F, // closing context-3
	}

	_, n, err := DecodeNPDU(frame)
	require.NoError(t, err)

	apdu, err := DecodeAPDU(frame[n:])
	require.NoError(t, err)
	assert.EqualValues(t, 4, apdu.InvokeID)
	assert.EqualValues(t, ServiceReadRange, apdu.Service)

	req, err := DecodeReadRangeRequest(apdu.Data)
	require.NoError(t, err)
	assert.Equal(t, NewObjectIdentifier(ObjectTypeTrendLog, 1), req.ObjectID)
	assert.Equal(t, PropertyPresentValue, req.PropertyID)
	assert.Equal(t, RangeSelectorByPosition, req.Selector.Kind)
	assert.EqualValues(t, 1, req.Selector.ReferenceIndex)
	assert.EqualValues(t, 2, req.Selector.Count)
}

// Fixture 5: unconfirmed COV-Notification ingress. subscriber-process-id=17,
// initiating device=(device,1), monitored=(analog-input,1),
// time-remaining=60, one property value: present-value=real(40.0).
func TestFixtureCOVNotificationIngress(t *testing.T) {
	apduBytes := []byte{
		0x10, 0x02, // unconfirmed-request, service 2 (Unconfirmed-COV-Notification)
		0x09, 0x11, // context-0 unsigned: subscriber-process-id 17
		0x1C, 0x02, 0x00, 0x00, 0x01, // context-1 object-id (device, 1)
		0x2C, 0x00, 0x00, 0x00, 0x01, // context-2 object-id (analog-input, 1)
		0x39, 0x3C, // context-3 unsigned: time-remaining 60
		0x4E,                   // opening context-4 (value list)
		0x09, 0x55,             // context-0 unsigned: property-id 85 (present-value)
		0x2E,                   // opening context-2 (value wrapper)
		0x44, 0x42, 0x20, 0x00, 0x00, // application real 40.0
		0x2F, // closing context-2
		0x4F, // closing context-4
	}

	apdu, err := DecodeAPDU(apduBytes)
	require.NoError(t, err)
	assert.Equal(t, PDUTypeUnconfirmedRequest, apdu.Type)
	assert.EqualValues(t, ServiceUnconfirmedCOVNotification, apdu.Service)

	n, err := DecodeCOVNotification(apdu.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 17, n.SubscriberProcessID)
	assert.Equal(t, NewObjectIdentifier(ObjectTypeDevice, 1), n.InitiatingDeviceID)
	assert.Equal(t, NewObjectIdentifier(ObjectTypeAnalogInput, 1), n.MonitoredObjectID)
	assert.EqualValues(t, 60, n.TimeRemaining)
	require.Len(t, n.Values, 1)
	assert.Equal(t, PropertyPresentValue, n.Values[0].PropertyID)
	require.Equal(t, ValueReal, n.Values[0].Value.Kind)
	assert.InDelta(t, 40.0, n.Values[0].Value.Real, 0.0001)
}

// Fixture 7: BBMD register-foreign-device. The client emits a BVLC
// frame with type=0x81, function=0x05 (Register-Foreign-Device),
// length=0x0006, plus the 16-bit TTL.
func TestFixtureBBMDRegisterForeignDevice(t *testing.T) {
	frame := EncodeRegisterForeignDevice(300)
	assert.Equal(t, []byte{0x81, 0x05, 0x00, 0x06, 0x01, 0x2C}, frame)

	hdr, err := DecodeBVLC(frame)
	require.NoError(t, err)
	assert.Equal(t, BVLCRegisterForeignDevice, hdr.Function)
	assert.Equal(t, 6, hdr.Length)

	// A Result BVLC with code 0 signals success; non-zero surfaces as
	// BvlcResult(code).
	resultOK := EncodeBVLC(BVLCResult, 2)
	resultOK = append(resultOK, 0x00, 0x00)
	code, err := DecodeBVLCResult(resultOK[4:])
	require.NoError(t, err)
	assert.EqualValues(t, 0, code)

	resultFail := EncodeBVLC(BVLCResult, 2)
	resultFail = append(resultFail, 0x00, 0x10)
	code, err = DecodeBVLCResult(resultFail[4:])
	require.NoError(t, err)
	assert.EqualValues(t, 0x10, code)
}

// Fixture 8: Forwarded-NPDU origin preservation. A Forwarded-NPDU
// payload beginning with the 6-byte origin address 10.1.2.3:47808
// followed by NPDU bytes 01 02 03 must be delivered with that origin
// address as the source, not the relaying BBMD's own UDP address.
func TestFixtureForwardedNPDUOriginPreservation(t *testing.T) {
	origin := []byte{0x0A, 0x01, 0x02, 0x03, 0xBA, 0xC0}
	npduBytes := []byte{0x01, 0x02, 0x03}

	payload := append(append([]byte(nil), origin...), npduBytes...)
	frame := EncodeBVLC(BVLCForwardedNPDU, len(payload))
	frame = append(frame, payload...)

	hdr, err := DecodeBVLC(frame)
	require.NoError(t, err)
	assert.Equal(t, BVLCForwardedNPDU, hdr.Function)

	npduData := frame[4:]
	ip, port, err := DecodeOriginAddress(npduData[:6])
	require.NoError(t, err)
	assert.Equal(t, [4]byte{10, 1, 2, 3}, ip)
	assert.EqualValues(t, DefaultPort, port)
	assert.Equal(t, npduBytes, npduData[6:])
}

// Fixture 6: segmented complex-ack reassembly. A simulated device
// splits a ReadProperty ack body across two complex-ack segments
// (sequence 0 with more-follows, sequence 1 final), replays sequence 0
// once more before sending sequence 1, and the client must re-ack the
// duplicate without appending it twice while returning the correctly
// reassembled value. This drives the real client engine over loopback
// UDP sockets rather than decoding a literal frame directly, since the
// behavior under test (reassembleComplexAck) lives in the segmented-ack
// state machine, not in a single codec call.
func TestFixtureSegmentedComplexAckReassembly(t *testing.T) {
	dev, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	defer dev.Close()

	client, err := NewClient(WithLocalAddress("127.0.0.1:0"), WithResponseTimeout(5*time.Second))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	const deviceID = 99
	devPort := dev.LocalAddr().(*net.UDPAddr).Port
	addr := make([]byte, 6)
	copy(addr[:4], net.IPv4(127, 0, 0, 1).To4())
	binary.BigEndian.PutUint16(addr[4:], uint16(devPort))

	client.devicesMu.Lock()
	client.devices[deviceID] = &DeviceInfo{
		ObjectID: NewObjectIdentifier(ObjectTypeDevice, deviceID),
		Address:  Address{Addr: addr},
	}
	client.devicesMu.Unlock()

	objectID := NewObjectIdentifier(ObjectTypeAnalogInput, 1)
	propertyID := PropertyPresentValue

	fullAck := EncodeReadPropertyAck(ReadPropertyAck{
		ObjectID:   objectID,
		PropertyID: propertyID,
		Value:      CharacterStringValue("segmented-reassembly-fixture-payload"),
	})
	require.True(t, len(fullAck) > 1)
	split := len(fullAck) / 2
	segment0, segment1 := fullAck[:split], fullAck[split:]

	acksSeen := make(chan uint8, 8)
	deviceErr := make(chan error, 1)

	go func() {
		_ = dev.SetReadDeadline(time.Now().Add(5 * time.Second))
		buf := make([]byte, 2048)
		n, clientAddr, err := dev.ReadFromUDP(buf)
		if err != nil {
			deviceErr <- err
			return
		}

		npdu, off, err := DecodeNPDU(buf[4:n])
		if err != nil {
			deviceErr <- err
			return
		}
		_ = npdu
		req, err := DecodeAPDU(buf[4+off : n])
		if err != nil {
			deviceErr <- err
			return
		}
		if req.Type != PDUTypeConfirmedRequest || req.Service != uint8(ServiceReadProperty) {
			deviceErr <- assert.AnError
			return
		}
		invokeID := req.InvokeID

		sendSegment := func(seq uint8, moreFollows bool, body []byte) error {
			flags := byte(0x08)
			if moreFollows {
				flags |= 0x04
			}
			apdu := []byte{byte(PDUTypeComplexAck) | flags, invokeID, byte(ServiceReadProperty), seq, 1}
			apdu = append(apdu, body...)
			npdu := EncodeNPDU(false, NPDUControlPriorityNormal)
			bvlcFrame := EncodeBVLC(BVLCOriginalUnicastNPDU, len(npdu)+len(apdu))
			packet := append(append(append([]byte(nil), bvlcFrame...), npdu...), apdu...)
			_, err := dev.WriteToUDP(packet, clientAddr)
			return err
		}

		readAck := func() (uint8, error) {
			_ = dev.SetReadDeadline(time.Now().Add(5 * time.Second))
			ackBuf := make([]byte, 64)
			n, _, err := dev.ReadFromUDP(ackBuf)
			if err != nil {
				return 0, err
			}
			ackNpdu, ackOff, err := DecodeNPDU(ackBuf[4:n])
			if err != nil {
				return 0, err
			}
			_ = ackNpdu
			ack, err := DecodeAPDU(ackBuf[4+ackOff : n])
			if err != nil {
				return 0, err
			}
			if ack.Type != PDUTypeSegmentAck {
				return 0, assert.AnError
			}
			return ack.SequenceNum, nil
		}

		if err := sendSegment(0, true, segment0); err != nil {
			deviceErr <- err
			return
		}
		if seq, err := readAck(); err != nil {
			deviceErr <- err
			return
		} else {
			acksSeen <- seq
		}

		if err := sendSegment(0, true, segment0); err != nil { // duplicate
			deviceErr <- err
			return
		}
		if seq, err := readAck(); err != nil {
			deviceErr <- err
			return
		} else {
			acksSeen <- seq
		}

		if err := sendSegment(1, false, segment1); err != nil {
			deviceErr <- err
			return
		}
		if seq, err := readAck(); err != nil {
			deviceErr <- err
			return
		} else {
			acksSeen <- seq
		}

		close(acksSeen)
	}()

	value, err := client.ReadProperty(ctx, deviceID, objectID, propertyID)
	require.NoError(t, err)
	assert.Equal(t, ValueCharacterString, value.Kind)
	assert.Equal(t, "segmented-reassembly-fixture-payload", value.Text)

	select {
	case e := <-deviceErr:
		t.Fatalf("fake device error: %v", e)
	default:
	}

	var acks []uint8
	for seq := range acksSeen {
		acks = append(acks, seq)
	}
	require.Len(t, acks, 3)
	assert.EqualValues(t, 0, acks[0])
	assert.EqualValues(t, 0, acks[1])
	assert.EqualValues(t, 1, acks[2])
}
