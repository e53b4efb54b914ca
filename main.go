package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/electromart/electromart-api/controllers"
	"github.com/electromart/electromart-api/fulfillment"
	"github.com/electromart/electromart-api/initializers"
	"github.com/electromart/electromart-api/routes"
	"github.com/electromart/electromart-api/stores"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	initializers.LoadEnv()
	initializers.ConnectToDB()
	initializers.SyncDatabase()
}

func main() {
	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "https://www.electromart.store"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	orch := fulfillment.New(
		stores.NewDeliveryStore(initializers.DB),
		stores.NewOrderStore(initializers.DB),
		stores.NewPaymentStore(initializers.DB),
		stores.NewReconciliationStore(initializers.DB),
	)
	api := controllers.NewAPI(orch)

	routes.DefaultRoutes(server)
	routes.DeliveryRoutes(server, api)
	routes.OrderRoutes(server, api)
	routes.PaymentRoutes(server, api)

	server.Run()
}
