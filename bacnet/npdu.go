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
	"fmt"
)

const npduProtocolVersion = 0x01

// NPDU is the network-layer header that precedes every APDU on the wire.
type NPDU struct {
	Version      uint8
	Control      NPDUControl
	DestNet      uint16
	DestAddr     []byte
	DestHopCount uint8
	SrcNet       uint16
	SrcAddr      []byte
	MessageType  NetworkMessageType
	VendorID     uint16
	Data         []byte
}

// EncodeNPDU encodes an NPDU for a direct (non-routed) unicast or
// local-broadcast APDU.
func EncodeNPDU(expectingReply bool, priority NPDUControl) []byte {
	control := priority
	if expectingReply {
		control |= NPDUControlExpectingReply
	}
	return []byte{npduProtocolVersion, byte(control)}
}

// EncodeNPDUWithDest encodes an NPDU carrying a remote-network
// destination specifier, used when relaying through a router/BBMD.
func EncodeNPDUWithDest(destNet uint16, destAddr []byte, hopCount uint8, expectingReply bool, priority NPDUControl) []byte {
	control := priority | NPDUControlDestSpecifier
	if expectingReply {
		control |= NPDUControlExpectingReply
	}

	w := NewWriter()
	w.Byte(npduProtocolVersion)
	w.Byte(byte(control))
	w.Uint16(destNet)
	w.Byte(byte(len(destAddr)))
	w.Write(destAddr)
	w.Byte(hopCount)
	return w.Bytes()
}

// DecodeNPDU parses an NPDU header and returns it along with the
// number of bytes consumed; the remaining bytes are the APDU (or, for
// a network-layer message, NPDU.Data holds the message payload).
func DecodeNPDU(data []byte) (*NPDU, int, error) {
	r := NewReader(data)

	version, err := r.Byte()
	if err != nil {
		return nil, 0, ErrInvalidNPDU
	}
	if version != npduProtocolVersion {
		return nil, 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidNPDU, version)
	}

	controlByte, err := r.Byte()
	if err != nil {
		return nil, 0, ErrInvalidNPDU
	}

	npdu := &NPDU{Version: version, Control: NPDUControl(controlByte)}

	if npdu.Control&NPDUControlDestSpecifier != 0 {
		destNet, err := r.Uint16()
		if err != nil {
			return nil, 0, ErrInvalidNPDU
		}
		addrLenByte, err := r.Byte()
		if err != nil {
			return nil, 0, ErrInvalidNPDU
		}
		destAddr, err := r.Take(int(addrLenByte))
		if err != nil {
			return nil, 0, ErrInvalidNPDU
		}
		hopCount, err := r.Byte()
		if err != nil {
			return nil, 0, ErrInvalidNPDU
		}
		npdu.DestNet = destNet
		npdu.DestAddr = append([]byte(nil), destAddr...)
		npdu.DestHopCount = hopCount
	}

	if npdu.Control&NPDUControlSourceSpecifier != 0 {
		srcNet, err := r.Uint16()
		if err != nil {
			return nil, 0, ErrInvalidNPDU
		}
		addrLenByte, err := r.Byte()
		if err != nil {
			return nil, 0, ErrInvalidNPDU
		}
		srcAddr, err := r.Take(int(addrLenByte))
		if err != nil {
			return nil, 0, ErrInvalidNPDU
		}
		npdu.SrcNet = srcNet
		npdu.SrcAddr = append([]byte(nil), srcAddr...)
	}

	if npdu.Control&NPDUControlNetworkLayerMessage != 0 {
		msgType, err := r.Byte()
		if err != nil {
			return nil, 0, ErrInvalidNPDU
		}
		npdu.MessageType = NetworkMessageType(msgType)

		if npdu.MessageType >= 0x80 {
			vendorID, err := r.Uint16()
			if err != nil {
				return nil, 0, ErrInvalidNPDU
			}
			npdu.VendorID = vendorID
		}
	}

	npdu.Data = r.Bytes()
	return npdu, r.Pos(), nil
}
