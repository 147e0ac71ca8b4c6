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


package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCmd struct {
	Command
	addr      string
	overrides StringList
	timeout   time.Duration
	count     int
	executed  bool
}

func (c *testCmd) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.StringOption(&c.addr, "a|addr", "127.0.0.1:9000", "peer address")
	c.ValueOption(&c.overrides, "o|override", "config override")
	c.DurationOption(&c.timeout, "t|timeout", time.Second, "timeout")
	c.IntOption(&c.count, "n", 1, "count")
	c.SetSynopsis("[option] <channel>")
	c.AddExample("test -a host:1 3", "send to channel 3")
}

func (c *testCmd) Exec() error {
	c.executed = true
	return nil
}

func TestRegisterAndParse(t *testing.T) {
	c := &testCmd{}
	c.Init("cmdtest-send", "test command")
	require.True(t, Register(c))
	assert.False(t, Register(c))

	got, rest := ParseCommandLine([]string{"-x", "cmdtest-send", "-addr", "h:1", "-o", "A.B=1", "-override", "C=d", "-t", "5ms", "3"})
	require.NotNil(t, got)
	assert.Equal(t, []string{"-x", "-addr", "h:1", "-o", "A.B=1", "-override", "C=d", "-t", "5ms", "3"}, rest)

	require.NoError(t, c.Parse(rest[1:]))
	assert.Equal(t, "h:1", c.addr)
	assert.Equal(t, StringList{"A.B=1", "C=d"}, c.overrides)
	assert.Equal(t, 5*time.Millisecond, c.timeout)
	assert.Equal(t, 1, c.count)
	assert.Equal(t, []string{"3"}, c.Args())
	require.NoError(t, got.Exec())
	assert.True(t, c.executed)

	assert.Error(t, c.Parse([]string{"-unknown"}))
}

func TestParseCommandLineNoCommand(t *testing.T) {
	got, rest := ParseCommandLine([]string{"-version"})
	assert.Nil(t, got)
	assert.Equal(t, []string{"-version"}, rest)
}

func TestUsageText(t *testing.T) {
	c := &testCmd{}
	c.Init("cmdtest-usage", "usage test")
	var buf bytes.Buffer
	c.Write(&buf)
	s := buf.String()
	assert.Contains(t, s, "cmdtest-usage - usage test")
	assert.Contains(t, s, "-a, -addr string")
	assert.Contains(t, s, "-o, -override value")
	assert.Contains(t, s, "send to channel 3")

	RegisterNewGroup("cmdtest group", c)
	buf.Reset()
	WriteCommand(&buf)
	assert.Contains(t, buf.String(), "* cmdtest-usage")
}
