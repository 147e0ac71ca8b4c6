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
	"bytes"

	"eros/pkg/errors"
	"eros/third_party/forked/golang/glog"
)

const (
	Delimiter           byte = 0x00
	DefaultMaxCarryOver      = 64 * 1024
)

// Segment is one delimited candidate out of the byte stream.
type Segment struct {
	Payload []byte
	// Raw is the encoded candidate as received, without the delimiter.
	Raw []byte
	Err error
}

// WireSize is the number of stream bytes the segment consumed.
func (s Segment) WireSize() int {
	return len(s.Raw) + 1
}

// Framer turns a chunked byte stream into delimited packets. Unpack keeps
// state between calls and must be driven from a single goroutine.
type Framer struct {
	MaxCarryOver int
	carry        []byte
}

func NewFramer() *Framer {
	return &Framer{MaxCarryOver: DefaultMaxCarryOver}
}

func (f *Framer) Pack(payload []byte) []byte {
	return append(CobsEncode(payload), Delimiter)
}

// Unpack appends chunk to the carried-over bytes and returns a segment for
// every complete packet. The bytes after the last delimiter are carried over
// to the next call.
func (f *Framer) Unpack(chunk []byte) []Segment {
	buf := make([]byte, 0, len(f.carry)+len(chunk))
	buf = append(buf, f.carry...)
	buf = append(buf, chunk...)

	pieces := bytes.Split(buf, []byte{Delimiter})
	last := len(pieces) - 1

	segs := make([]Segment, 0, last)
	for _, raw := range pieces[:last] {
		payload, err := CobsDecode(raw)
		segs = append(segs, Segment{Payload: payload, Raw: raw, Err: err})
	}

	f.carry = pieces[last]
	if max := f.maxCarryOver(); len(f.carry) > max {
		if glog.LOG_DEBUG {
			glog.Debugf("framer carry-over %d bytes exceeds %d, dropped", len(f.carry), max)
		}
		segs = append(segs, Segment{Raw: f.carry, Err: errors.ErrFraming})
		f.carry = nil
	}
	return segs
}

// Pending returns the number of bytes waiting for a delimiter.
func (f *Framer) Pending() int {
	return len(f.carry)
}

func (f *Framer) Reset() {
	f.carry = nil
}

func (f *Framer) maxCarryOver() int {
	if f.MaxCarryOver <= 0 {
		return DefaultMaxCarryOver
	}
	return f.MaxCarryOver
}
