// Command analysis-stub runs a local stand-in for the remote analysis
// service, exposing the /api/analyze endpoints with permissive CORS so a
// UI served from another origin can reach it during development.
package main

import (
	"flag"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Horizontal-Labs/ArminApp/internal/infrastructure/logging"
	"github.com/Horizontal-Labs/ArminApp/internal/stub"
)

func main() {
	addr := flag.String("addr", ":3000", "Listen address")
	dev := flag.Bool("dev", true, "Development logging")
	flag.Parse()

	var logger *logging.Logger
	if *dev {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "X-Request-ID", "X-Client-Instance"},
	}))

	stub.New(logger).Register(router)

	logger.Info("analysis stub listening on " + *addr)
	if err := router.Run(*addr); err != nil {
		log.Fatalf("analysis stub failed: %v", err)
	}
}
