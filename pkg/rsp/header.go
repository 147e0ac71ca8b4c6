//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//


/*
Package rsp implements the reliable serial protocol: sequenced data frames
that may ask for an acknowledgement, and the matching RESP_ACK / RESP_NACK
replies.

	+--------+--------+----------- ... -+----------------+
	|  seq   |type|rsv|      data       | crc16 (BE)     |
	+--------+--------+----------- ... -+----------------+

The checksum is CRC-16 with polynomial 0x0007 and initial value 0 over the
header and data. Sequence 0 carries frames that expect no reply.

A Link runs over any Port. Packetizer places it directly on a byte-stream
transport, ChannelPort places it on one channel of an eros.Eros.
*/
package rsp

import (
	"fmt"

	"eros/pkg/errors"
	"eros/pkg/proto"
	"eros/pkg/util"
)

type FrameType uint8

const (
	DATA_ACK FrameType = iota
	DATA_NOACK
	RESP_ACK
	RESP_NACK
)

const (
	HeaderSize   = 2
	MinFrameSize = HeaderSize + proto.ChecksumSize

	// NoAckSeq is the sequence number of frames sent without DATA_ACK.
	NoAckSeq uint8 = 0
)

var (
	// Checksum protects RSP frames. Check value over "123456789" is 0xEF6F.
	Checksum = proto.NewCRC16(0x0007, 0x0000)

	frameTypeNames = []string{
		"DATA_ACK",
		"DATA_NOACK",
		"RESP_ACK",
		"RESP_NACK",
	}
)

func (t FrameType) String() string {
	if int(t) < len(frameTypeNames) {
		return frameTypeNames[t]
	}
	return fmt.Sprintf("FrameType(%d)", uint8(t))
}

func (t FrameType) IsData() bool {
	return t == DATA_ACK || t == DATA_NOACK
}

func (t FrameType) IsResponse() bool {
	return t == RESP_ACK || t == RESP_NACK
}

type Header struct {
	Seq  uint8
	Type FrameType
}

func (h Header) String() string {
	return fmt.Sprintf("seq=%d type=%s", h.Seq, h.Type)
}

type Frame struct {
	Header
	Data []byte
}

func (f *Frame) Encode() []byte {
	b := make([]byte, 0, MinFrameSize+len(f.Data))
	b = append(b, f.Seq, byte(f.Type)<<4)
	b = append(b, f.Data...)
	return Checksum.Append(b)
}

// DecodeFrame validates the checksum of b and splits it into header and data.
// The returned data aliases b.
func DecodeFrame(b []byte) (*Frame, error) {
	if len(b) < MinFrameSize {
		return nil, fmt.Errorf("rsp frame of %d bytes: %w", len(b), errors.ErrTruncated)
	}
	if !Checksum.Valid(b) {
		return nil, fmt.Errorf("rsp frame %s: %w", util.HexTail(b, 16), errors.ErrChecksum)
	}
	t := FrameType(b[1] >> 4)
	if int(t) >= len(frameTypeNames) {
		return nil, fmt.Errorf("rsp frame type %d: %w", t, errors.ErrFraming)
	}
	return &Frame{
		Header: Header{Seq: b[0], Type: t},
		Data:   b[HeaderSize : len(b)-proto.ChecksumSize],
	}, nil
}
