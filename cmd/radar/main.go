package main

import (
	"radar/cmd/cmd"
	"radar/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
