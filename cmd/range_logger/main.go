// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/range_logger/internal/app"
	"github.com/relabs-tech/range_logger/internal/config"
)

func main() {
	log.Println("starting range-logger")

	// Load configuration; a missing file means defaults
	if err := config.InitGlobal("range_logger_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunLogger(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
