package main

import (
	"os"

	"github.com/emrgen/legaldoc/internal/server"
)

func main() {
	httpPort := os.Getenv("HTTP_PORT")
	if httpPort == "" {
		httpPort = "4020"
	}

	err := server.Start(httpPort)
	if err != nil {
		os.Exit(1)
	}
}
