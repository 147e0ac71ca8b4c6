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


package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eros/pkg/transport"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "info", conf.LogLevel)
	assert.Equal(t, transport.KindTCP, conf.Transport.Kind)
	assert.Equal(t, time.Second, conf.Transport.TCP.ConnectTimeout.Duration)
	assert.Equal(t, 5*time.Second, conf.Reliability.Timeout.Duration)
	assert.Equal(t, 64*1024, conf.Eros.MaxDiscardBuffer)
	assert.NotNil(t, conf.Eros.Clock)
	assert.Equal(t, "erostool", conf.OTEL.AppName)
	assert.False(t, conf.OTEL.Enabled)
}

func TestLoadFileThenOverrides(t *testing.T) {
	file := filepath.Join(t.TempDir(), "erostool.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
LogLevel = "debug"

[Transport]
Kind = "udp"

[Transport.UDP]
RemoteAddr = "127.0.0.1:7000"

[Reliability]
Timeout = "250ms"
`), 0644))

	conf, err := Load(file, []string{"transport.udp.remoteaddr=10.1.1.1:7001", "Eros.MaxDiscardBuffer=128"})
	require.NoError(t, err)
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, transport.KindUDP, conf.Transport.Kind)
	assert.Equal(t, "10.1.1.1:7001", conf.Transport.UDP.RemoteAddr)
	assert.Equal(t, 1500, conf.Transport.UDP.ReadBufSize)
	assert.Equal(t, 250*time.Millisecond, conf.Reliability.Timeout.Duration)
	assert.Equal(t, 128, conf.Eros.MaxDiscardBuffer)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.toml"), nil)
	assert.Error(t, err)

	_, err = Load("", []string{"Transport.Kind=serial"})
	assert.Error(t, err)

	_, err = Load("", []string{"bad"})
	assert.Error(t, err)
}
