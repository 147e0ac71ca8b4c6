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

package proto

import (
	"fmt"

	"eros/pkg/errors"
)

const (
	ProtocolVersion uint8 = 0
	NumChannels           = 16
	MaxChannel      uint8 = NumChannels - 1
	HeaderSize            = 1
)

type Header struct {
	Version         uint8
	Channel         uint8
	RequestResponse bool
	Reserved        bool
}

func (h Header) Byte() byte {
	b := h.Version<<6 | (h.Channel&0x0F)<<2
	if h.RequestResponse {
		b |= 0x02
	}
	if h.Reserved {
		b |= 0x01
	}
	return b
}

func ParseHeader(b byte) Header {
	return Header{
		Version:         b >> 6,
		Channel:         (b >> 2) & 0x0F,
		RequestResponse: b&0x02 != 0,
		Reserved:        b&0x01 != 0,
	}
}

func (h Header) String() string {
	return fmt.Sprintf("{ver=%d ch=%d rr=%t}", h.Version, h.Channel, h.RequestResponse)
}

func ValidChannel(channel int) bool {
	return channel >= 0 && channel <= int(MaxChannel)
}

// Pack prefixes payload with the route header.
func Pack(payload []byte, channel uint8, rr bool) ([]byte, error) {
	if channel > MaxChannel {
		return nil, fmt.Errorf("channel %d: %w", channel, errors.ErrInvalidChannel)
	}
	h := Header{Version: ProtocolVersion, Channel: channel, RequestResponse: rr}
	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, h.Byte())
	return append(out, payload...), nil
}

func Unpack(b []byte) (h Header, payload []byte, err error) {
	if len(b) < HeaderSize {
		err = errors.ErrTruncated
		return
	}
	h = ParseHeader(b[0])
	if h.Version != ProtocolVersion {
		err = fmt.Errorf("version %d: %w", h.Version, errors.ErrProtocolVersion)
		return
	}
	payload = b[HeaderSize:]
	return
}
