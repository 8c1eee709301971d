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
	"encoding/binary"
	"fmt"
)

// BVLCHeader is the decoded 4-byte BVLC header prefixing every
// BACnet/IP datagram.
type BVLCHeader struct {
	Function BVLCFunction
	Length   int
}

// EncodeBVLC encodes a BVLC header for a payload of payloadLen bytes
// (the NPDU plus APDU that follows it on the wire).
func EncodeBVLC(fn BVLCFunction, payloadLen int) []byte {
	buf := make([]byte, 4)
	buf[0] = byte(BVLCTypeBACnetIP)
	buf[1] = byte(fn)
	binary.BigEndian.PutUint16(buf[2:], uint16(4+payloadLen))
	return buf
}

// DecodeBVLC decodes the 4-byte BVLC header and validates that the
// declared length matches the datagram actually received.
func DecodeBVLC(data []byte) (*BVLCHeader, error) {
	if len(data) < 4 {
		return nil, ErrInvalidBVLC
	}
	if BVLCType(data[0]) != BVLCTypeBACnetIP {
		return nil, ErrInvalidBVLC
	}
	length := int(binary.BigEndian.Uint16(data[2:4]))
	if length != len(data) {
		return nil, ErrInvalidBVLC
	}
	return &BVLCHeader{Function: BVLCFunction(data[1]), Length: length}, nil
}

// UnsupportedBvlcFunction is returned when an inbound datagram carries
// a BVLC function this client does not dispatch.
type UnsupportedBvlcFunction uint8

func (f UnsupportedBvlcFunction) Error() string {
	return fmt.Sprintf("bacnet: unsupported BVLC function %#02x", uint8(f))
}

// BvlcResult is a non-zero BVLC-Result code returned by a BBMD in
// response to an administrative command.
type BvlcResult uint8

func (r BvlcResult) Error() string {
	return fmt.Sprintf("bacnet: BVLC-Result code %d", uint8(r))
}

// DecodeOriginAddress decodes the 6-byte IPv4+port origin address
// prefix carried by a Forwarded-NPDU message, identifying the device
// the relaying BBMD received the original broadcast from.
func DecodeOriginAddress(data []byte) (ip [4]byte, port uint16, err error) {
	if len(data) < 6 {
		return ip, 0, ErrInvalidBVLC
	}
	copy(ip[:], data[:4])
	port = binary.BigEndian.Uint16(data[4:6])
	return ip, port, nil
}

// EncodeOriginAddress encodes the 6-byte IPv4+port origin address
// prefix for a Forwarded-NPDU message.
func EncodeOriginAddress(ip [4]byte, port uint16) []byte {
	buf := make([]byte, 6)
	copy(buf[:4], ip[:])
	binary.BigEndian.PutUint16(buf[4:], port)
	return buf
}

// EncodeRegisterForeignDevice encodes a Register-Foreign-Device BVLC
// payload (the BVLC header plus a single 2-byte TTL field).
func EncodeRegisterForeignDevice(ttl uint16) []byte {
	w := NewWriter()
	w.Write(EncodeBVLC(BVLCRegisterForeignDevice, 2))
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, ttl)
	w.Write(buf)
	return w.Bytes()
}

// BDTEntry is one fixed 10-byte record of a Broadcast Distribution
// Table: the BBMD's IPv4 address, UDP port, and broadcast distribution
// mask.
type BDTEntry struct {
	Addr [4]byte
	Port uint16
	Mask [4]byte
}

// EncodeBDTEntry encodes a single BDT record.
func EncodeBDTEntry(e BDTEntry) []byte {
	buf := make([]byte, 10)
	copy(buf[0:4], e.Addr[:])
	binary.BigEndian.PutUint16(buf[4:6], e.Port)
	copy(buf[6:10], e.Mask[:])
	return buf
}

// DecodeBDTEntry decodes a single 10-byte BDT record.
func DecodeBDTEntry(data []byte) (BDTEntry, error) {
	if len(data) < 10 {
		return BDTEntry{}, ErrBufferUnderrun
	}
	var e BDTEntry
	copy(e.Addr[:], data[0:4])
	e.Port = binary.BigEndian.Uint16(data[4:6])
	copy(e.Mask[:], data[6:10])
	return e, nil
}

// FDTEntry is one fixed 10-byte record of a Foreign Device Table: the
// registrant's IPv4 address, UDP port, registration TTL, and seconds
// remaining before the entry expires.
type FDTEntry struct {
	Addr      [4]byte
	Port      uint16
	TTL       uint16
	Remaining uint16
}

// EncodeFDTEntry encodes a single FDT record.
func EncodeFDTEntry(e FDTEntry) []byte {
	buf := make([]byte, 10)
	copy(buf[0:4], e.Addr[:])
	binary.BigEndian.PutUint16(buf[4:6], e.Port)
	binary.BigEndian.PutUint16(buf[6:8], e.TTL)
	binary.BigEndian.PutUint16(buf[8:10], e.Remaining)
	return buf
}

// DecodeFDTEntry decodes a single 10-byte FDT record.
func DecodeFDTEntry(data []byte) (FDTEntry, error) {
	if len(data) < 10 {
		return FDTEntry{}, ErrBufferUnderrun
	}
	var e FDTEntry
	copy(e.Addr[:], data[0:4])
	e.Port = binary.BigEndian.Uint16(data[4:6])
	e.TTL = binary.BigEndian.Uint16(data[6:8])
	e.Remaining = binary.BigEndian.Uint16(data[8:10])
	return e, nil
}

// EncodeReadBroadcastDistributionTable encodes a
// Read-Broadcast-Distribution-Table BVLC command (header only, no body).
func EncodeReadBroadcastDistributionTable() []byte {
	return EncodeBVLC(BVLCReadBroadcastDistributionTable, 0)
}

// EncodeWriteBroadcastDistributionTable encodes a
// Write-Broadcast-Distribution-Table BVLC command carrying entries.
func EncodeWriteBroadcastDistributionTable(entries []BDTEntry) []byte {
	w := NewWriter()
	w.Write(EncodeBVLC(BVLCWriteBroadcastDistributionTable, 10*len(entries)))
	for _, e := range entries {
		w.Write(EncodeBDTEntry(e))
	}
	return w.Bytes()
}

// DecodeBroadcastDistributionTableAck decodes the body of a
// Read-Broadcast-Distribution-Table-Ack into its BDT entries.
func DecodeBroadcastDistributionTableAck(body []byte) ([]BDTEntry, error) {
	if len(body)%10 != 0 {
		return nil, ErrInvalidBVLC
	}
	entries := make([]BDTEntry, 0, len(body)/10)
	for pos := 0; pos < len(body); pos += 10 {
		e, err := DecodeBDTEntry(body[pos : pos+10])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// EncodeReadForeignDeviceTable encodes a Read-Foreign-Device-Table
// BVLC command (header only, no body).
func EncodeReadForeignDeviceTable() []byte {
	return EncodeBVLC(BVLCReadForeignDeviceTable, 0)
}

// DecodeForeignDeviceTableAck decodes the body of a
// Read-Foreign-Device-Table-Ack into its FDT entries.
func DecodeForeignDeviceTableAck(body []byte) ([]FDTEntry, error) {
	if len(body)%10 != 0 {
		return nil, ErrInvalidBVLC
	}
	entries := make([]FDTEntry, 0, len(body)/10)
	for pos := 0; pos < len(body); pos += 10 {
		e, err := DecodeFDTEntry(body[pos : pos+10])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// EncodeDeleteForeignDeviceTableEntry encodes a
// Delete-Foreign-Device-Table-Entry BVLC command identifying the
// registrant to remove by address and port.
func EncodeDeleteForeignDeviceTableEntry(addr [4]byte, port uint16) []byte {
	w := NewWriter()
	w.Write(EncodeBVLC(BVLCDeleteForeignDeviceTableEntry, 6))
	w.Write(EncodeOriginAddress(addr, port))
	return w.Bytes()
}

// DecodeBVLCResult decodes the 2-byte body of a BVLC-Result message
// into its result code; zero means success.
func DecodeBVLCResult(body []byte) (uint16, error) {
	if len(body) < 2 {
		return 0, ErrInvalidBVLC
	}
	return binary.BigEndian.Uint16(body[:2]), nil
}
