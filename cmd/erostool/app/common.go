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


// Package app holds the erostool sub-commands.
package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"eros/cmd/erostool/config"
	"eros/pkg/cmd"
	"eros/pkg/eros"
	"eros/pkg/initmgr"
	"eros/pkg/logging/otel"
	"eros/pkg/stats"
	"eros/pkg/transport"
	"eros/third_party/forked/golang/glog"
)

const kDefaultChannel = 1

// erosCommandT carries the options every erostool command shares: the
// config file, overrides and the log level.
type erosCommandT struct {
	cmd.Command
	conf config.Config

	optCfgFile   string
	optLogLevel  string
	optOverrides cmd.StringList
}

func (c *erosCommandT) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.StringOption(&c.optCfgFile, "c|config", "", "specify toml configuration file name")
	c.StringOption(&c.optLogLevel, "log-level", "", "override LogLevel (error, warning, info, debug, verbose)")
	c.ValueOption(&c.optOverrides, "o", "override a configuration value, e.g. -o Transport.TCP.Addr=127.0.0.1:9000. Repeatable.")
	c.AddDetails(`  Configuration is read from the TOML file given with -c, then every -o
  assignment is applied on top of it. Keys are case-insensitive.
`)
}

func (c *erosCommandT) Parse(args []string) (err error) {
	if err = c.Command.Parse(args); err != nil {
		return
	}
	if c.conf, err = config.Load(c.optCfgFile, c.optOverrides); err != nil {
		return
	}
	if c.optLogLevel != "" {
		c.conf.LogLevel = c.optLogLevel
	}
	return
}

// setUp starts logging and metrics. The returned context ends on SIGINT or
// SIGTERM.
func (c *erosCommandT) setUp() (context.Context, context.CancelFunc) {
	initmgr.RegisterWithFuncs(glog.Initialize, glog.Finalize, c.conf.LogLevel, c.conf.AppName)
	initmgr.RegisterWithFuncs(otel.Initialize, otel.Finalize, &c.conf.OTEL)
	initmgr.Init()
	c.conf.Dump()
	return initmgr.SignalContext(context.Background())
}

func (c *erosCommandT) tearDown() {
	initmgr.Finalize()
}

// openEros opens the configured transport and starts an Eros on it.
func (c *erosCommandT) openEros(name string, reg *transport.Registry) (*eros.Eros, error) {
	t, err := transport.Open(&c.conf.Transport, reg)
	if err != nil {
		return nil, err
	}
	conf := c.conf.Eros
	conf.Name = name
	e := eros.New(t, &conf)
	otel.RegisterRateGauge(e)
	return e, nil
}

// reportStats prints the analytics table of e every StatsInterval until ctx
// or e is done.
func (c *erosCommandT) reportStats(ctx context.Context, e *eros.Eros) {
	if c.conf.StatsInterval.Duration <= 0 {
		return
	}
	ticker := time.NewTicker(c.conf.StatsInterval.Duration)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.Done():
			return
		case <-ticker.C:
			stats.PrintRateTable(os.Stdout, e.RateRows())
		}
	}
}

func parsePayload(arg string, isHex bool) ([]byte, error) {
	if isHex {
		b, err := hex.DecodeString(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %w", err)
		}
		return b, nil
	}
	return []byte(arg), nil
}
