package persistence

import (
	"fmt"
	"time"

	"github.com/possuite/backend/internal/infrastructure/config"
	"github.com/possuite/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the configured database. Pass nil for gormLogger to
// silence GORM.
func NewDatabase(cfg *config.DatabaseConfig, gormLogger gormlogger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	gcfg := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqliteDSN(cfg.SQLitePath)), gcfg)
	default:
		gcfg.PrepareStmt = true
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// One writer at a time; a second connection would only hit SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// NewSQLiteMemory opens a private in-memory SQLite database with the full
// schema migrated. It backs tests and single-terminal demos.
func NewSQLiteMemory() (*Database, error) {
	d, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, nil)
	if err != nil {
		return nil, err
	}
	if err := d.AutoMigrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// sqliteDSN enables foreign keys and a busy timeout on file databases.
func sqliteDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// AutoMigrate creates or updates every table from the GORM models. The SQL
// migrations under migrations/ remain the source of truth for PostgreSQL.
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics and an error if unable to retrieve
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Repositories bundles the non-transactional repositories and the
// transaction scope over one connection.
type Repositories struct {
	Tenants        *GormTenantRepository
	Counters       *GormCounterRepository
	StockItems     *GormStockItemRepository
	StockMovements *GormStockMovementRepository
	Sales          *GormSaleRepository
	Refunds        *GormRefundRepository
	Rates          *GormRateRepository
	Scope          *GormTransactionScope
}

// NewRepositories wires every repository to d. lockTimeout bounds row-lock
// waits inside transactions on PostgreSQL.
func (d *Database) NewRepositories(lockTimeout time.Duration) *Repositories {
	return &Repositories{
		Tenants:        NewGormTenantRepository(d.DB),
		Counters:       NewGormCounterRepository(d.DB),
		StockItems:     NewGormStockItemRepository(d.DB),
		StockMovements: NewGormStockMovementRepository(d.DB),
		Sales:          NewGormSaleRepository(d.DB),
		Refunds:        NewGormRefundRepository(d.DB),
		Rates:          NewGormRateRepository(d.DB),
		Scope:          NewGormTransactionScope(d.DB, lockTimeout),
	}
}
