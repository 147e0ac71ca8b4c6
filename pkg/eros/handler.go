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

package eros

type (
	// ChannelHandler receives the payloads routed to one channel.
	ChannelHandler interface {
		HandlePacket(payload []byte)
	}

	// CatchAllHandler receives packets for channels with no handler.
	CatchAllHandler interface {
		HandlePacket(channel uint8, payload []byte)
	}

	// RawHandler sees every verified packet before routing, header included.
	RawHandler interface {
		HandleRaw(packet []byte)
	}

	ChannelHandlerFunc  func(payload []byte)
	CatchAllHandlerFunc func(channel uint8, payload []byte)
	RawHandlerFunc      func(packet []byte)
)

func (f ChannelHandlerFunc) HandlePacket(payload []byte) {
	f(payload)
}

func (f CatchAllHandlerFunc) HandlePacket(channel uint8, payload []byte) {
	f(channel, payload)
}

func (f RawHandlerFunc) HandleRaw(packet []byte) {
	f(packet)
}
