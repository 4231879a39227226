package server

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/Depado/ginprom"
	"github.com/wacrm/app/api/routes"
	"github.com/wacrm/pkg/config"
	"github.com/wacrm/pkg/database"

	"github.com/wacrm/pkg/domains/auth"
	"github.com/wacrm/pkg/domains/gateway"
	"github.com/wacrm/pkg/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func LaunchHttpServer(appc config.App, gwc config.Gateway, allows config.Allows) {
	log.Println("Starting HTTP Server...")
	gin.SetMode(gin.DebugMode)

	app := gin.New()
	app.Use(gin.LoggerWithFormatter(func(log gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] - %s \"%s %s %s %d %s\"\n",
			log.TimeStamp.Format("2006-01-02 15:04:05"),
			log.ClientIP,
			log.Method,
			log.Path,
			log.Request.Proto,
			log.StatusCode,
			log.Latency,
		)
	}))
	app.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	app.Use(gin.Recovery())
	app.Use(otelgin.Middleware(appc.Name))
	app.Use(middleware.ClaimIp())
	app.Use(cors.New(cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "Origin", "Accept"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	p := ginprom.New(
		ginprom.Engine(app),
		ginprom.Subsystem("gin"),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/swagger/*any"),
	)
	app.Use(p.Instrument())

	db := database.DBClient()
	api := app.Group("/api/v1")

	// Auth Routes
	auth_repo := auth.NewRepo(db)
	auth_service := auth.NewService(auth_repo)
	routes.AuthRoutes(api.Group("/auth"), auth_service)

	// Gateway Routes
	journal, err := database.OpenJournal(gwc.JournalPath)
	if err != nil {
		log.Printf("[error] failed to open message journal, continuing without it: %v", err)
		journal = nil
	}
	gateway_repo := gateway.NewRepo(db)
	gateway_service := gateway.NewService(gateway_repo, journal, &http.Client{
		Timeout: time.Duration(gwc.TimeoutSeconds) * time.Second,
	})
	routes.GatewayRoutes(api.Group("/gateways"), gateway_service)

	fmt.Println("Server is running on port " + appc.Port)
	if err := app.Run(net.JoinHostPort(appc.Host, appc.Port)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
