package migration

import (
	categorydomain "github.com/smallbiznis/soko/internal/category/domain"
	"github.com/smallbiznis/soko/internal/config"
	customerdomain "github.com/smallbiznis/soko/internal/customer/domain"
	orderdomain "github.com/smallbiznis/soko/internal/order/domain"
	productdomain "github.com/smallbiznis/soko/internal/product/domain"
	"github.com/smallbiznis/soko/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite are dev conveniences; schema drift there is
			// acceptable and AutoMigrate keeps them usable.
			if err := conn.AutoMigrate(
				&customerdomain.Customer{},
				&categorydomain.Category{},
				&productdomain.Product{},
				&orderdomain.Order{},
				&orderdomain.OrderItem{},
			); err != nil {
				return err
			}
		}

		if cfg.Bootstrap.SeedDemoData {
			return seed.EnsureDemoCatalog(conn)
		}
		return nil
	}),
)
