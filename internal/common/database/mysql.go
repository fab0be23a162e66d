// internal/common/database/mysql.go
package database

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stayease/internal/common/config"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MySQLClient wraps a gorm handle on a MySQL database.
type MySQLClient struct {
	DB *gorm.DB
}

// NewMySQL opens a gorm connection pool.
func NewMySQL(cfg config.MySQLConfig) (*MySQLClient, error) {
	dsn, err := MySQLDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get mysql pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return &MySQLClient{DB: db}, nil
}

// MySQLDSN builds a driver DSN from cfg. A mysql:// URL is converted and a
// raw DSN is passed through.
func MySQLDSN(cfg config.MySQLConfig) (string, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw != "" && !strings.HasPrefix(raw, "mysql://") {
		if _, err := mysqldriver.ParseDSN(raw); err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		return raw, nil
	}

	dc := mysqldriver.NewConfig()
	dc.Net = "tcp"
	dc.ParseTime = true

	if raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("invalid mysql url: %w", err)
		}
		dc.User = u.User.Username()
		dc.Passwd, _ = u.User.Password()
		port := u.Port()
		if port == "" {
			port = "3306"
		}
		dc.Addr = u.Hostname() + ":" + port
		dc.DBName = strings.TrimPrefix(u.Path, "/")
		if dc.DBName == "" {
			return "", fmt.Errorf("mysql url missing database name")
		}
		if u.RawQuery != "" {
			// query options are applied on top of the defaults
			parsed, err := mysqldriver.ParseDSN(dc.FormatDSN() + "&" + u.RawQuery)
			if err != nil {
				return "", fmt.Errorf("invalid mysql url options: %w", err)
			}
			return parsed.FormatDSN(), nil
		}
		return dc.FormatDSN(), nil
	}

	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Addr = cfg.Host + ":" + strconv.Itoa(cfg.Port)
	dc.DBName = cfg.Database
	return dc.FormatDSN(), nil
}

// Ping tests the database connection
func (c *MySQLClient) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	return nil
}

// Close closes the underlying pool
func (c *MySQLClient) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
