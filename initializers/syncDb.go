package initializers

import (
	log "github.com/sirupsen/logrus"

	"github.com/electromart/electromart-api/models"
)

func SyncDatabase() {
	err := DB.AutoMigrate(
		&models.Delivery{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Reconciliation{},
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to sync database")
	}
	log.Info("Database synced successfully.")
}
