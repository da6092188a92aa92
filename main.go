// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/khampha-vn/khampha/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
