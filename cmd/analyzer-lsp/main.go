// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"absint/internal/analyzerlsp"
	"absint/internal/config"
	"absint/internal/observability"
)

const lsName = "abstract-interp"

var (
	version = "0.0.1"
	handler protocol.Handler
)

func main() {
	commonlog.Configure(1, nil)

	cfg := config.Default()
	if path := os.Getenv("ANALYZER_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("load config %s: %s", path, err)
		}
		cfg = loaded
	}

	logger, err := observability.NewLogger(os.Getenv("ANALYZER_VERBOSE") != "")
	if err != nil {
		log.Fatalf("build logger: %s", err)
	}
	defer logger.Sync()

	h := analyzerlsp.NewHandler(cfg, logger)

	handler = protocol.Handler{
		Initialize:            h.Initialize,
		Initialized:           h.Initialized,
		Shutdown:              h.Shutdown,
		TextDocumentDidOpen:   h.TextDocumentDidOpen,
		TextDocumentDidClose:  h.TextDocumentDidClose,
		TextDocumentDidChange: h.TextDocumentDidChange,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting abstract-interpretation LSP server...")
	if err := s.RunStdio(); err != nil {
		log.Println("Error starting LSP server:", err)
		os.Exit(1)
	}
}
