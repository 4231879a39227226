package cmd

import (
	"github.com/wacrm/pkg/config"
	"github.com/wacrm/pkg/database"
	"github.com/wacrm/pkg/server"
	"github.com/wacrm/pkg/utils"
)

func StartApp() {
	config := config.InitConfig()
	utils.LoadEnv()
	database.InitDB(config.Database)
	server.LaunchHttpServer(config.App, config.Gateway, config.Allows)
}
