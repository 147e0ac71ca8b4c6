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
	"encoding/binary"

	"eros/pkg/errors"
)

const ChecksumSize = 2

// CRC16 is a table driven, MSB-first CRC-16 without reflection or final xor.
type CRC16 struct {
	Poly  uint16
	Init  uint16
	table [256]uint16
}

var (
	// Eros16 protects routed packets. Check value over "123456789" is 0xAEE7.
	Eros16 = NewCRC16(0x8005, 0xFFFF)
)

func NewCRC16(poly uint16, init uint16) *CRC16 {
	c := &CRC16{Poly: poly, Init: init}
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		c.table[i] = crc
	}
	return c
}

func (c *CRC16) Checksum(data []byte) uint16 {
	return c.Update(c.Init, data)
}

func (c *CRC16) Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = crc<<8 ^ c.table[byte(crc>>8)^b]
	}
	return crc
}

// Append adds the big-endian checksum of data to data.
func (c *CRC16) Append(data []byte) []byte {
	var sum [ChecksumSize]byte
	binary.BigEndian.PutUint16(sum[:], c.Checksum(data))
	return append(data, sum[:]...)
}

// Valid reports whether b ends with the checksum of its leading bytes.
func (c *CRC16) Valid(b []byte) bool {
	return len(b) >= ChecksumSize && c.Checksum(b) == 0
}

type Verifier struct {
	crc *CRC16
}

func NewVerifier() *Verifier {
	return &Verifier{crc: Eros16}
}

func (v *Verifier) Pack(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+ChecksumSize)
	out = append(out, payload...)
	return v.crc.Append(out)
}

func (v *Verifier) Unpack(b []byte) ([]byte, error) {
	if !v.crc.Valid(b) {
		return nil, errors.ErrChecksum
	}
	return b[:len(b)-ChecksumSize], nil
}
