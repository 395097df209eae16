package main

import (
	"log"
	"os"
)

// stdout carries JSON-RPC, so every log line goes to stderr.
var (
	debugLogging bool
	operatorLog  = log.New(os.Stderr, "twitter MCP: ", log.LstdFlags)
)

func init() {
	// Set TWITTER_DEBUG=1 or MCP_TWITTER_DEBUG=1 to enable debug logging.
	debugLogging = os.Getenv("TWITTER_DEBUG") != "" || os.Getenv("MCP_TWITTER_DEBUG") != ""
	log.SetOutput(os.Stderr)
}

func enableDebug(on bool) {
	if on {
		debugLogging = true
	}
}

func debugLog(v ...interface{}) {
	if debugLogging {
		log.Println(v...)
	}
}

func debugLogf(format string, v ...interface{}) {
	if debugLogging {
		log.Printf(format, v...)
	}
}

// operatorf reports something an operator must see regardless of debug mode.
func operatorf(format string, v ...interface{}) {
	operatorLog.Printf(format, v...)
}
