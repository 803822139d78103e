package main

import (
	"os"

	"device_controller/internal/cli"
)

// @title           Device Controller API
// @version         1.0
// @description     Read-only monitoring of guarded state machine devices (thermostat, access panel).
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
