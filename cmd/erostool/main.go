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


package main

import (
	"fmt"
	"os"

	_ "eros/cmd/erostool/app"
	"eros/pkg/cmd"
)

func main() {
	command, args := cmd.ParseCommandLine(os.Args[1:])
	if command == nil {
		cmd.PrintVersionOrUsage(os.Args[1:])
		return
	}
	if err := command.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "* command '%s' failed. %s\n", command.GetName(), err)
		command.PrintUsage()
		os.Exit(2)
	}
	if err := command.Exec(); err != nil {
		fmt.Fprintf(os.Stderr, "* command '%s' failed. %s\n", command.GetName(), err)
		os.Exit(1)
	}
}
