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
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eros/pkg/errors"
)

func seq(from, to int) []byte {
	b := make([]byte, 0, to-from+1)
	for i := from; i <= to; i++ {
		b = append(b, byte(i))
	}
	return b
}

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestCobsKnownAnswers(t *testing.T) {
	tests := []struct {
		name    string
		decoded []byte
		encoded []byte
	}{
		{"empty", []byte{}, []byte{0x01}},
		{"zero", []byte{0x00}, []byte{0x01, 0x01}},
		{"two zeros", []byte{0x00, 0x00}, []byte{0x01, 0x01, 0x01}},
		{"inner zero", []byte{0x11, 0x22, 0x00, 0x33}, []byte{0x03, 0x11, 0x22, 0x02, 0x33}},
		{"no zero", []byte{0x11, 0x22, 0x33, 0x44}, []byte{0x05, 0x11, 0x22, 0x33, 0x44}},
		{"trailing zeros", []byte{0x11, 0x00, 0x00, 0x00}, []byte{0x02, 0x11, 0x01, 0x01, 0x01}},
		{"254 run", seq(1, 254), cat([]byte{0xFF}, seq(1, 254))},
		{"zero then 254 run", cat([]byte{0}, seq(1, 254)), cat([]byte{0x01, 0xFF}, seq(1, 254))},
		{"255 run", seq(1, 255), cat([]byte{0xFF}, seq(1, 254), []byte{0x02, 0xFF})},
		{"254 run then zero", cat(seq(2, 255), []byte{0}), cat([]byte{0xFF}, seq(2, 255), []byte{0x01, 0x01})},
		{"253 run zero one", cat(seq(3, 255), []byte{0, 1}), cat([]byte{0xFE}, seq(3, 255), []byte{0x02, 0x01})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			enc := CobsEncode(tc.decoded)
			assert.Equal(t, tc.encoded, enc)
			assert.NotContains(t, enc, byte(0))

			dec, err := CobsDecode(tc.encoded)
			require.NoError(t, err)
			assert.Equal(t, tc.decoded, dec)
		})
	}
}

func TestCobsDecodeErrors(t *testing.T) {
	_, err := CobsDecode([]byte{0x05, 0x11, 0x22})
	assert.ErrorIs(t, err, errors.ErrFraming, "truncated block")

	_, err = CobsDecode([]byte{0x03, 0x11, 0x00})
	assert.ErrorIs(t, err, errors.ErrFraming, "zero inside block")

	_, err = CobsDecode([]byte{0x00})
	assert.ErrorIs(t, err, errors.ErrFraming, "zero code byte")

	dec, err := CobsDecode(nil)
	require.NoError(t, err)
	assert.Empty(t, dec)
}

func TestCrcCheckValues(t *testing.T) {
	assert.Equal(t, uint16(0xAEE7), Eros16.Checksum([]byte("123456789")))
	assert.Equal(t, uint16(0xEF6F), NewCRC16(0x0007, 0x0000).Checksum([]byte("123456789")))
	assert.Equal(t, uint16(0xFFFF), Eros16.Checksum(nil))
	assert.Equal(t, uint16(0x1CC5), Eros16.Checksum([]byte("hello")))
}

func TestVerifier(t *testing.T) {
	v := NewVerifier()
	packed := v.Pack([]byte("hello"))
	assert.Equal(t, []byte{'h', 'e', 'l', 'l', 'o', 0x1C, 0xC5}, packed)
	assert.Equal(t, uint16(0), Eros16.Checksum(packed))

	out, err := v.Unpack(packed)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out)

	_, err = v.Unpack([]byte{0x01})
	assert.ErrorIs(t, err, errors.ErrChecksum)
	_, err = v.Unpack(nil)
	assert.ErrorIs(t, err, errors.ErrChecksum)
}

func TestVerifierDetectsSingleBitFlips(t *testing.T) {
	v := NewVerifier()
	packed := v.Pack([]byte("The quick brown fox"))
	for i := 0; i < len(packed)*8; i++ {
		corrupt := append([]byte(nil), packed...)
		corrupt[i/8] ^= 1 << (i % 8)
		_, err := v.Unpack(corrupt)
		if !assert.ErrorIs(t, err, errors.ErrChecksum, "bit %d", i) {
			return
		}
	}
}

func TestRoutingHeader(t *testing.T) {
	b, err := Pack([]byte("x"), 1, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 'x'}, b)

	b, err = Pack(nil, 15, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3E}, b)

	h, payload, err := Unpack([]byte{0x3E, 0xAA})
	require.NoError(t, err)
	assert.Equal(t, Header{Version: 0, Channel: 15, RequestResponse: true}, h)
	assert.Equal(t, []byte{0xAA}, payload)

	_, err = Pack(nil, 16, false)
	assert.ErrorIs(t, err, errors.ErrInvalidChannel)

	_, _, err = Unpack(nil)
	assert.ErrorIs(t, err, errors.ErrTruncated)

	_, _, err = Unpack([]byte{0x44})
	assert.ErrorIs(t, err, errors.ErrProtocolVersion)
}

func TestFullStackKnownAnswer(t *testing.T) {
	routed, err := Pack([]byte("hello"), 1, false)
	require.NoError(t, err)
	wire := NewFramer().Pack(NewVerifier().Pack(routed))
	assert.Equal(t, "090468656c6c6fd81b00", hex.EncodeToString(wire))
}

func TestFramerRoundTrip(t *testing.T) {
	f := NewFramer()
	payloads := [][]byte{[]byte("a"), {}, {0, 0, 0}, seq(0, 255), cat(seq(1, 254), seq(1, 254))}
	var stream []byte
	for _, p := range payloads {
		stream = append(stream, f.Pack(p)...)
	}
	segs := f.Unpack(stream)
	require.Len(t, segs, len(payloads))
	for i, s := range segs {
		require.NoError(t, s.Err)
		assert.Equal(t, payloads[i], s.Payload)
	}
	assert.Equal(t, 0, f.Pending())
}

func TestFramerReassemblesEverySplit(t *testing.T) {
	wire := NewFramer().Pack([]byte{1, 0, 2, 0, 3})
	for split := 0; split <= len(wire); split++ {
		f := NewFramer()
		segs := f.Unpack(wire[:split])
		segs = append(segs, f.Unpack(wire[split:])...)
		require.Len(t, segs, 1, "split %d", split)
		assert.Equal(t, []byte{1, 0, 2, 0, 3}, segs[0].Payload)
		assert.Equal(t, len(wire), segs[0].WireSize())
	}
}

func TestFramerByteAtATime(t *testing.T) {
	f := NewFramer()
	wire := cat(f.Pack([]byte("one")), f.Pack([]byte("two")))
	var got [][]byte
	for _, b := range wire {
		for _, s := range f.Unpack([]byte{b}) {
			require.NoError(t, s.Err)
			got = append(got, s.Payload)
		}
	}
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, got)
}

func TestFramerMalformedSegmentContinues(t *testing.T) {
	f := NewFramer()
	stream := cat([]byte{0x05, 0x11, 0x00}, f.Pack([]byte("ok")))
	segs := f.Unpack(stream)
	require.Len(t, segs, 2)
	assert.ErrorIs(t, segs[0].Err, errors.ErrFraming)
	assert.Equal(t, []byte{0x05, 0x11}, segs[0].Raw)
	assert.Equal(t, 3, segs[0].WireSize())
	require.NoError(t, segs[1].Err)
	assert.Equal(t, []byte("ok"), segs[1].Payload)
}

func TestFramerCarryOverBound(t *testing.T) {
	f := &Framer{MaxCarryOver: 8}
	segs := f.Unpack(bytes.Repeat([]byte{0x01}, 9))
	require.Len(t, segs, 1)
	assert.ErrorIs(t, segs[0].Err, errors.ErrFraming)
	assert.Equal(t, 0, f.Pending())

	segs = f.Unpack(f.Pack([]byte("next")))
	require.Len(t, segs, 1)
	assert.Equal(t, []byte("next"), segs[0].Payload)
}

func TestFramerReset(t *testing.T) {
	f := NewFramer()
	f.Unpack([]byte{0x03, 0x11})
	assert.Equal(t, 2, f.Pending())
	f.Reset()
	assert.Equal(t, 0, f.Pending())
}
