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
	"bytes"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"eros/pkg/cfg"
	"eros/pkg/eros"
	otelCfg "eros/pkg/logging/otel/config"
	"eros/pkg/rsp"
	"eros/pkg/transport"
	"eros/pkg/util"
	"eros/third_party/forked/golang/glog"
)

var (
	DefaultConfig = Config{
		LogLevel:      "info",
		AppName:       "erostool",
		StatsInterval: util.Duration{Duration: 2 * time.Second},
		Transport: transport.Config{
			Kind: transport.KindTCP,
			TCP:  transport.DefaultTCPConfig,
			UDP:  transport.DefaultUDPConfig,
			Pipe: transport.DefaultPipeConfig,
			NATS: transport.DefaultNATSConfig,
		},
		Eros:        eros.DefaultConfig,
		Reliability: rsp.DefaultConfig,
		OTEL: otelCfg.Config{
			AppName: "erostool",
		},
	}
)

type Config struct {
	LogLevel string
	AppName  string
	// How often long running commands print the analytics table. Zero
	// disables it.
	StatsInterval util.Duration

	Transport   transport.Config
	Eros        eros.Config
	Reliability rsp.Config
	OTEL        otelCfg.Config
}

// Load returns DefaultConfig with the TOML file (if any) and then the
// "Key.Path=value" overrides applied.
func Load(file string, overrides []string) (conf Config, err error) {
	conf = DefaultConfig

	var merged cfg.Config
	if err = merged.ReadFrom(&conf); err != nil {
		return
	}
	if file != "" {
		var fc cfg.Config
		if err = fc.ReadFromTomlFile(file); err != nil {
			return
		}
		if err = merged.Merge(&fc); err != nil {
			return
		}
	}
	var oc cfg.Config
	for _, o := range overrides {
		if err = oc.SetOverride(o); err != nil {
			return
		}
	}
	if err = merged.Merge(&oc); err != nil {
		return
	}
	if err = merged.WriteTo(&conf); err != nil {
		return
	}
	err = conf.Validate()
	return
}

func (c *Config) Validate() error {
	c.Transport.SetDefaultIfNotDefined()
	c.Eros.SetDefaultIfNotDefined()
	c.Reliability.SetDefaultIfNotDefined()
	if c.OTEL.AppName == "" {
		c.OTEL.AppName = c.AppName
	}
	c.OTEL.Validate()

	switch c.Transport.Kind {
	case transport.KindTCP, transport.KindUDP, transport.KindPipe, transport.KindLoopback, transport.KindNATS:
	default:
		return fmt.Errorf("unknown transport kind %q", c.Transport.Kind)
	}
	if c.StatsInterval.Duration < 0 {
		return fmt.Errorf("negative StatsInterval %s", c.StatsInterval.Duration)
	}
	return nil
}

func (c *Config) Dump() {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		glog.Warningf("config dump: %s", err)
		return
	}
	glog.Info(buf.String())
}
