package main

import (
	"github.com/wacrm/app/cmd"
)

// @title WhatsApp Gateway API
// @version 1.0
// @description Messaging connectivity service for external WhatsApp gateway deployments.

// @host  localhost:8000
// @BasePath /api/v1

func main() {
	cmd.StartApp()
}
