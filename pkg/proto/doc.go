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
Package proto implements the eros wire layers below the dispatch core.

A packet on a byte-stream link is built bottom-up as

  +--------------------------------------------------------------+------+
  |              COBS encoded block (no 0x00 inside)             | 0x00 |
  +--------------------------------------------------------------+------+
                                 |
                                 v decoded
  +---------------+--------------------------------------+----------------+
  | route header  |             payload                  | CRC-16 (BE)    |
  +---------------+--------------------------------------+----------------+

Discrete-packet links (UDP, NATS) skip the framing and verification layers
and carry the routing header and payload only.

Route header

        |0|1|2|3|4|5|6|7|
   byte |              0|
  ------+---+-------+-+-+
      0 |ver|channel|R|r|
  ------+---+-------+-+-+

  ver:
    protocol version, 0
  channel:
    0..15
  R:
    request/response flag
  r:
    reserved, 0

Verification

  CRC-16, polynomial 0x8005, initial value 0xFFFF, MSB first, not reflected,
  no final xor. The checksum is appended big-endian so the checksum of a valid
  packet including its trailer is 0.

Framing

  Consistent Overhead Byte Stuffing. A run of 254 non-zero bytes is coded as
  0xFF followed by the run. When the input ends right after such a run no
  further code byte is emitted.
*/
package proto
