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


package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackCommand(t *testing.T) {
	c := &cmdLoopbackT{}
	c.Init("loopback-test", "loopback under test")
	require.NoError(t, c.Parse([]string{"-n", "60", "-corrupt", "6", "-size", "40", "-dump", "-o", "StatsInterval=0s"}))
	assert.Equal(t, 60, c.optCount)
	require.NoError(t, c.Exec())
}

func TestSendParse(t *testing.T) {
	c := &cmdSendT{}
	c.Init("send-test", "send under test")
	assert.Error(t, c.Parse(nil))

	c = &cmdSendT{}
	c.Init("send-test", "send under test")
	require.NoError(t, c.Parse([]string{"-x", "-ch", "3", "-o", "Transport.Kind=udp", "0a0b"}))
	assert.Equal(t, []byte{0x0a, 0x0b}, c.payload)
	assert.Equal(t, 3, c.optChannel)
	assert.Equal(t, "udp", c.conf.Transport.Kind)

	c = &cmdSendT{}
	c.Init("send-test", "send under test")
	assert.Error(t, c.Parse([]string{"-x", "zz"}))
}

func TestPingParse(t *testing.T) {
	c := &cmdPingT{}
	c.Init("ping-test", "ping under test")
	require.NoError(t, c.Parse([]string{"-placement", "stream"}))
	assert.Equal(t, []byte("ping"), c.payload)

	c = &cmdPingT{}
	c.Init("ping-test", "ping under test")
	assert.Error(t, c.Parse([]string{"-placement", "sideways"}))
}
