// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"absint/internal/config"
	"absint/internal/errors"
	"absint/internal/fixture"
	"absint/internal/interproc"
	"absint/internal/observability"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: analyzecli [-config path.toml] [-verbose] <file.af>")
		os.Exit(1)
	}

	var configPath string
	var verbose bool
	var path string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config":
			i++
			if i >= len(args) {
				fmt.Println("-config requires a path")
				os.Exit(1)
			}
			configPath = args[i]
		case "-verbose":
			verbose = true
		default:
			path = args[i]
		}
	}
	if path == "" {
		fmt.Println("Usage: analyzecli [-config path.toml] [-verbose] <file.af>")
		os.Exit(1)
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			color.Red("❌ %s", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log, err := observability.NewLogger(verbose)
	if err != nil {
		color.Red("❌ failed to build logger: %s", err)
		os.Exit(1)
	}
	defer log.Sync()

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("❌ failed to read file: %s", err)
		os.Exit(1)
	}

	fns, err := fixture.ParseString(path, string(source))
	if err != nil {
		// fixture.ParseString already printed a caret diagnostic.
		os.Exit(1)
	}

	driver := interproc.NewDriver(fns, cfg, log)
	_, diags := driver.Analyze(context.Background())

	if len(diags) == 0 {
		color.Green("✅ no findings in %s", path)
		return
	}

	reporter := errors.NewDiagnosticReporter(path, string(source))
	errorCount := 0
	for _, d := range diags {
		fmt.Print(reporter.Format(d))
		if d.Severity() == errors.Error {
			errorCount++
		}
	}
	if errorCount > 0 {
		os.Exit(1)
	}
}
