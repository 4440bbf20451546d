package db_client

import (
	"time"

	"github.com/Strum355/log"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB *gorm.DB
)

// Init connects to Postgres, waiting for the database to come up so the
// bot survives container start ordering.
func Init() error {
	dsn := viper.GetString("postgres.dsn")

	var err error
	for i := 0; i < 10; i++ {
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			sqlDB, _ := DB.DB()
			if pingErr := sqlDB.Ping(); pingErr == nil {
				return nil
			}
		}
		log.Info("Waiting for Postgres to be ready...")
		time.Sleep(time.Second)
	}
	log.WithError(err).Error("Unable to connect to database")
	return err
}
