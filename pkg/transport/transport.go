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
Package transport provides the byte-stream and packet links eros runs over.

Every driver implements Transport and composes a StateMachine for its
lifecycle. Capabilities tell the dispatch core whether the link needs the
framing and verification layers (byte streams) or delivers whole, intact
packets (datagrams, message buses).
*/
package transport

import (
	"time"
)

type (
	Capabilities struct {
		Framing      bool
		Verification bool
	}

	Transport interface {
		// Read blocks for the next chunk of bytes (or the next packet on a
		// packet link).
		Read() ([]byte, error)
		Write(b []byte) error
		Close() error
		Capabilities() Capabilities
		State() State
		WaitForState(target State, timeout time.Duration) bool
		// Epoch identifies the connection the last chunk returned by Read
		// came from. A change means a stream transport reconnected and any
		// partial frame held by the reader is stale.
		Epoch() uint64
	}
)

var (
	StreamCapabilities = Capabilities{Framing: true, Verification: true}
	PacketCapabilities = Capabilities{Framing: false, Verification: false}
)
