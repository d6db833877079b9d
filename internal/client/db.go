package client

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"paypal-checkout-relay/internal/model"
)

func InitMysqlClient(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool shared by all request handlers
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.Transaction{}); err != nil {
		return nil, err
	}

	return db, nil
}
