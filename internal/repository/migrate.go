package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates every table owned by this service. It is
// used in development and tests; other environments run SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&MerchantModel{},
		&PromotionModel{},
		&FavoriteModel{},
		&ClickModel{},
	)
}
