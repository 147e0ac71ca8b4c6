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

// Package glog keeps the level-gated logging calls used across eros
// (LOG_DEBUG guards, Debugf, Verbosef) on top of github.com/golang/glog.
package glog

import (
	"flag"
	"fmt"
	"strings"
	"sync"

	gglog "github.com/golang/glog"
)

type (
	Verbose bool

	ILogLevel interface {
		SetLevel()
	}
)

var (
	LOG_ERROR   Verbose = true
	LOG_WARN    Verbose = true
	LOG_INFO    Verbose = true
	LOG_DEBUG   Verbose = false
	LOG_VERBOSE Verbose = false

	pmap   = make(map[string]ILogLevel)
	pmapMu sync.Mutex
)

func Initialize(args ...interface{}) (err error) {
	if len(args) < 2 {
		err = fmt.Errorf("two arguments expected")
		return
	}
	level, ok := args[0].(string)
	if !ok {
		err = fmt.Errorf("a string log level expected")
		return
	}
	appName, ok := args[1].(string)
	if !ok {
		err = fmt.Errorf("a string appname expected")
		return
	}
	InitLogging(level, appName)
	return
}

func Finalize() {
	gglog.Flush()
}

// InitLogging sets the process log level. appName is kept for parity with
// the app banner, glog itself names files after the binary.
func InitLogging(level string, appName string) {
	setFlag("logtostderr", "true")

	var v int
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		v = 1
	case "warning", "warn":
		v = 2
	case "debug":
		v = 4
	case "verbose":
		v = 5
	default:
		v = 3
	}
	setFlag("v", fmt.Sprintf("%d", v))

	LOG_ERROR = v >= 1
	LOG_WARN = v >= 2
	LOG_INFO = v >= 3
	LOG_DEBUG = v >= 4
	LOG_VERBOSE = v >= 5

	pmapMu.Lock()
	defer pmapMu.Unlock()
	for _, value := range pmap {
		value.SetLevel()
	}
	if LOG_DEBUG {
		Debugf("logging initialized for %s, level=%s", appName, level)
	}
}

func setFlag(name, value string) {
	if f := flag.Lookup(name); f != nil {
		f.Value.Set(value)
	}
}

func Info(args ...interface{}) {
	if LOG_INFO {
		gglog.InfoDepth(1, args...)
	}
}

func InfoDepth(depth int, args ...interface{}) {
	if LOG_INFO {
		gglog.InfoDepth(depth+1, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if LOG_INFO {
		gglog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func Warning(args ...interface{}) {
	if LOG_WARN {
		gglog.WarningDepth(1, args...)
	}
}

func WarningDepth(depth int, args ...interface{}) {
	if LOG_WARN {
		gglog.WarningDepth(depth+1, args...)
	}
}

func Warningf(format string, args ...interface{}) {
	if LOG_WARN {
		gglog.WarningDepth(1, fmt.Sprintf(format, args...))
	}
}

func Error(args ...interface{}) {
	if LOG_ERROR {
		gglog.ErrorDepth(1, args...)
	}
}

func ErrorDepth(depth int, args ...interface{}) {
	if LOG_ERROR {
		gglog.ErrorDepth(depth+1, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if LOG_ERROR {
		gglog.ErrorDepth(1, fmt.Sprintf(format, args...))
	}
}

func Debug(args ...interface{}) {
	if LOG_DEBUG {
		gglog.InfoDepth(1, args...)
	}
}

func DebugDepth(depth int, args ...interface{}) {
	if LOG_DEBUG {
		gglog.InfoDepth(depth+1, args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if LOG_DEBUG {
		gglog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func Verbosef(format string, args ...interface{}) {
	if LOG_VERBOSE {
		gglog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func Fatal(args ...interface{}) {
	gglog.FatalDepth(1, args...)
}

func Exitf(format string, args ...interface{}) {
	gglog.ExitDepth(1, fmt.Sprintf(format, args...))
}

func RegisterPackage(name string, level ILogLevel) {
	pmapMu.Lock()
	defer pmapMu.Unlock()
	pmap[name] = level
}

func SetVModule(value string) {
	setFlag("vmodule", value)
}
