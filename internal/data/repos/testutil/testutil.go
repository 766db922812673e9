package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/kon-rad/juego-sub000/internal/data/db"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

var errMissingMongo = errors.New("missing TEST_MONGO_URI")

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	sqliteSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database. TEST_POSTGRES_DSN selects a shared postgres
// database; otherwise each call gets a fresh in-memory sqlite database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		pgOnce.Do(func() {
			pgDB, pgErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
				DisableForeignKeyConstraintWhenMigrating: true,
				TranslateError:                           true,
				Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
			})
			if pgErr != nil {
				return
			}
			pgErr = db.Migrate(pgDB)
		})
		if pgErr != nil {
			tb.Fatalf("failed to init test db: %v", pgErr)
		}
		return pgDB
	}

	name := fmt.Sprintf("file:juego_test_%d?mode=memory&cache=shared", sqliteSeq.Add(1))
	sdb, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := sdb.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(sdb); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return sdb
}

// Tx opens a transaction that is rolled back when the test ends.
// With sqlite every repo call in the test must go through the returned tx.
func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// Mongo returns a scratch database on TEST_MONGO_URI, dropped when the test ends.
func Mongo(tb testing.TB) *mongo.Database {
	tb.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		tb.Skip(errMissingMongo.Error() + ": set it to run mongo repo integration tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		tb.Fatalf("mongo connect: %v", err)
	}
	mdb := client.Database(fmt.Sprintf("juego_test_%d", time.Now().UnixNano()))
	if err := db.EnsureChatIndexes(ctx, mdb); err != nil {
		tb.Fatalf("mongo indexes: %v", err)
	}
	tb.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer ccancel()
		_ = mdb.Drop(cctx)
		_ = client.Disconnect(cctx)
	})
	return mdb
}
