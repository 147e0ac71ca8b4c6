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


// Package initmgr runs the process initializers (logging, metrics) in
// registration order and finalizes them in reverse.
package initmgr

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"

	"eros/third_party/forked/golang/glog"
)

var (
	mtx          sync.Mutex
	initializers initEntriesT
)

type entryT struct {
	initializer  IInitializer
	weight       int
	args         []interface{}
	initOnce     *sync.Once
	finalizeOnce *sync.Once
	initialized  bool
}

type initEntriesT []entryT

type IInitializer interface {
	Name() string
	Initialize(args ...interface{}) error
	Finalize()
}

func (rs initEntriesT) Len() int {
	return len(rs)
}

func (rs initEntriesT) Less(i, j int) bool {
	return rs[i].weight < rs[j].weight
}

func (rs initEntriesT) Swap(i, j int) {
	rs[i], rs[j] = rs[j], rs[i]
}

// Run initializes every registered entry not yet initialized. When one fails
// the entries initialized before it are finalized and the error returned.
func Run() error {
	mtx.Lock()
	defer mtx.Unlock()

	sort.Stable(initializers)
	for i := range initializers {
		e := &initializers[i]
		var err error
		e.initOnce.Do(func() {
			name := e.initializer.Name()
			if err = e.initializer.Initialize(e.args...); err == nil {
				e.initialized = true
				fmt.Fprintf(os.Stderr, "... [ok]   initmgr.initialize %s\n", name)
			} else {
				fmt.Fprintf(os.Stderr, "... [fail] initmgr.initialize %s\t (error: %s)\n", name, err)
			}
		})
		if err != nil {
			finalizeBackwardsFrom(i - 1)
			return fmt.Errorf("initialize %s: %w", e.initializer.Name(), err)
		}
	}
	return nil
}

// Init is Run for main packages: a failure exits the process.
func Init() {
	if err := Run(); err != nil {
		glog.Errorf("initialization failure: %s", err)
		glog.Finalize()
		os.Exit(255)
	}
}

func finalizeBackwardsFrom(i int) {
	for ; i >= 0; i-- {
		e := &initializers[i]
		if !e.initialized {
			continue
		}
		e.finalizeOnce.Do(func() {
			fmt.Fprintf(os.Stderr, "... initmgr.finalize %s\n", e.initializer.Name())
			e.initializer.Finalize()
		})
	}
}

func Finalize() {
	mtx.Lock()
	defer mtx.Unlock()
	finalizeBackwardsFrom(len(initializers) - 1)
}

// Reset forgets every registration. Finalize first if needed.
func Reset() {
	mtx.Lock()
	initializers = nil
	mtx.Unlock()
}

func Register(rc IInitializer, args ...interface{}) {
	mtx.Lock()
	weight := len(initializers)
	mtx.Unlock()
	RegisterWithWeight(rc, weight, args...)
}

func RegisterWithFuncs(initializeFunc func(args ...interface{}) error, finalizeFunc func(), args ...interface{}) {
	Register(NewInitializer(initializeFunc, finalizeFunc), args...)
}

func RegisterWithWeight(rc IInitializer, weight int, args ...interface{}) {
	mtx.Lock()
	initializers = append(initializers, entryT{
		initializer:  rc,
		weight:       weight,
		args:         args,
		initOnce:     &sync.Once{},
		finalizeOnce: &sync.Once{},
	})
	mtx.Unlock()
}

// SignalContext is cancelled on SIGINT or SIGTERM. SIGPIPE is ignored so a
// peer hanging up surfaces as a write error.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	signal.Ignore(syscall.SIGPIPE)
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

type Initializer struct {
	name           string
	InitializeFunc func(args ...interface{}) error
	FinalizeFunc   func()
}

func (i *Initializer) Name() string {
	return i.name
}

func (i *Initializer) Initialize(args ...interface{}) error {
	if i.InitializeFunc != nil {
		return i.InitializeFunc(args...)
	}
	return nil
}

func (i *Initializer) Finalize() {
	if i.FinalizeFunc != nil {
		i.FinalizeFunc()
	}
}

// NewInitializer names the initializer after the package of initializeFunc.
func NewInitializer(initializeFunc func(args ...interface{}) error, finalizeFunc func()) IInitializer {
	name := "unknown package"
	if initializeFunc != nil {
		name = runtime.FuncForPC(reflect.ValueOf(initializeFunc).Pointer()).Name()
		if i := strings.LastIndex(name, "."); i != -1 {
			name = name[:i]
		} else {
			name = "unknown package"
		}
	}
	return &Initializer{name, initializeFunc, finalizeFunc}
}
