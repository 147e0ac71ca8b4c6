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


package cfg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eros/pkg/util"
)

const sample = `
LogLevel = "info"

[Transport]
Kind = "tcp"

[Transport.TCP]
Addr = "127.0.0.1:9000"
AutoReconnect = false
ConnectTimeout = "1s"
`

type tcpConf struct {
	Addr           string
	AutoReconnect  bool
	ConnectTimeout util.Duration
	ReadBufSize    int
}

type toolConf struct {
	LogLevel  string
	Transport struct {
		Kind string
		TCP  tcpConf
	}
}

func TestOverridesMergedBeforeDecode(t *testing.T) {
	var c Config
	require.NoError(t, c.ReadFromToml(strings.NewReader(sample)))

	var o Config
	require.NoError(t, o.SetOverride("transport.tcp.addr=10.0.0.1:7000"))
	require.NoError(t, o.SetOverride("Transport.TCP.AutoReconnect=true"))
	require.NoError(t, o.SetOverride("Transport.TCP.ReadBufSize=4096"))
	require.NoError(t, o.SetOverride(`LogLevel="debug"`))
	require.NoError(t, c.Merge(&o))

	var conf toolConf
	require.NoError(t, c.WriteTo(&conf))
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, "tcp", conf.Transport.Kind)
	assert.Equal(t, "10.0.0.1:7000", conf.Transport.TCP.Addr)
	assert.True(t, conf.Transport.TCP.AutoReconnect)
	assert.Equal(t, 4096, conf.Transport.TCP.ReadBufSize)
	assert.Equal(t, time.Second, conf.Transport.TCP.ConnectTimeout.Duration)
}

func TestGetValueIsCaseInsensitive(t *testing.T) {
	var c Config
	require.NoError(t, c.ReadFromToml(strings.NewReader(sample)))
	assert.Equal(t, "tcp", c.GetValue("TRANSPORT.kind"))
	assert.Nil(t, c.GetValue("Transport.UDP"))
	assert.Nil(t, c.GetValue("LogLevel.x"))

	m, ok := c.GetValue("Transport.TCP").(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:9000", m["Addr"])
}

func TestMergeRejectsShapeChange(t *testing.T) {
	var c Config
	require.NoError(t, c.ReadFromToml(strings.NewReader(sample)))
	assert.Error(t, c.SetKeyValue("Transport", "tcp"))
	assert.Error(t, c.SetOverride("LogLevel.Sub=1"))
}

func TestInvalidOverride(t *testing.T) {
	var c Config
	assert.Error(t, c.SetOverride("novalue"))
	assert.Error(t, c.SetOverride("=x"))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, int64(12), parseValue("12"))
	assert.Equal(t, 0.5, parseValue("0.5"))
	assert.Equal(t, "5s", parseValue("5s"))
	assert.Equal(t, "12", parseValue(`"12"`))
}

func TestReadFromStructAndFile(t *testing.T) {
	var src toolConf
	src.LogLevel = "warning"
	src.Transport.Kind = "udp"
	src.Transport.TCP.ConnectTimeout = util.Duration{Duration: 3 * time.Second}

	var c Config
	require.NoError(t, c.ReadFrom(&src))

	var buf bytes.Buffer
	require.NoError(t, c.WriteToToml(&buf))
	file := filepath.Join(t.TempDir(), "eros.toml")
	require.NoError(t, os.WriteFile(file, buf.Bytes(), 0644))

	var fc Config
	require.NoError(t, fc.ReadFromTomlFile(file))
	var got toolConf
	require.NoError(t, fc.WriteTo(&got))
	assert.Equal(t, src, got)

	assert.Error(t, fc.ReadFromTomlFile(filepath.Join(t.TempDir(), "missing.toml")))
}

func TestWriteToKVList(t *testing.T) {
	var c Config
	require.NoError(t, c.ReadFromToml(strings.NewReader(sample)))
	var buf bytes.Buffer
	c.WriteToKVList(&buf)
	assert.Equal(t, `LogLevel=info
Transport.Kind=tcp
Transport.TCP.Addr=127.0.0.1:9000
Transport.TCP.AutoReconnect=false
Transport.TCP.ConnectTimeout=1s
`, buf.String())
}
