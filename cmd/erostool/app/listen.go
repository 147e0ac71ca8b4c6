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
	"context"
	"fmt"
	"sync"

	"eros/pkg/eros"
	"eros/pkg/rsp"
	"eros/pkg/transport"
	"eros/pkg/util"
	"eros/third_party/forked/golang/glog"
)

type cmdListenT struct {
	erosCommandT
	optEcho       bool
	optRspChannel int
}

func (c *cmdListenT) Init(name string, desc string) {
	c.erosCommandT.Init(name, desc)
	c.BoolOption(&c.optEcho, "echo", false, "send every packet back on the channel it came in on")
	c.IntOption(&c.optRspChannel, "rsp", -1, "answer reliability-layer requests on this channel, -1 disables")
	c.SetSynopsis("[option]")
	c.AddDetails(`  With a tcp transport, Transport.TCP.Addr is the address to listen on and
  every accepted connection gets its own link. Other transports are opened
  as configured and served as a single link.
`)
	c.AddExample("erostool listen -o Transport.TCP.Addr=:9000 -echo", "echo server on port 9000")
}

func (c *cmdListenT) Exec() error {
	ctx, cancel := c.setUp()
	defer cancel()
	defer c.tearDown()

	if c.conf.Transport.Kind != transport.KindTCP {
		e, err := c.openEros(c.conf.AppName, transport.NewRegistry())
		if err != nil {
			return err
		}
		defer e.Close()
		if err = c.serve(e); err != nil {
			return err
		}
		go c.reportStats(ctx, e)
		if err = e.Spin(ctx, true); err != nil && err != context.Canceled {
			return err
		}
		return nil
	}

	lsnr, err := transport.ListenTCP(c.conf.Transport.TCP.Addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		lsnr.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := lsnr.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		conf := c.conf.Eros
		conf.Name = conn.Name()
		e := eros.New(conn, &conf)
		if err = c.serve(e); err != nil {
			e.Close()
			return err
		}
		glog.Infof("%s: connected", e.Name())
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer e.Close()
			e.Spin(ctx, true)
			glog.Infof("%s: disconnected", e.Name())
		}()
	}
}

// serve prints or echoes what arrives on e and answers RSP requests on the
// configured channel.
func (c *cmdListenT) serve(e *eros.Eros) error {
	e.AttachCatchAll(eros.CatchAllHandlerFunc(func(channel uint8, payload []byte) {
		fmt.Printf("%s ch=%d %s\n", e.Name(), channel, util.ToPrintableAndHexString(payload))
		if c.optEcho {
			if err := e.Transmit(int(channel), payload); err != nil {
				glog.Warningf("%s: echo: %s", e.Name(), err)
			}
		}
	}))
	if c.optRspChannel < 0 {
		return nil
	}
	port, err := rsp.NewChannelPort(e, c.optRspChannel)
	if err != nil {
		return err
	}
	conf := c.conf.Reliability
	conf.Name = e.Name()
	link := rsp.NewLink(port, &conf)
	link.SetHandler(func(data []byte) (bool, []byte) {
		fmt.Printf("%s rsp %s\n", e.Name(), util.ToPrintableAndHexString(data))
		return true, data
	})
	return nil
}
