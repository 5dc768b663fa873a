package gormdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/trezcool/tutorbook/core"
)

type entry struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (entry) TableName() string { return "kv_entries" }

// DB is a key-value table in a SQLite file: the local, single-user default store.
type DB struct {
	db *gorm.DB
}

var _ core.KVStore = (*DB)(nil)

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite %s", path)
	}
	if err = db.AutoMigrate(&entry{}); err != nil {
		return nil, errors.Wrap(err, "migrating kv_entries")
	}
	return &DB{db: db}, nil
}

func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := db.db.WithContext(ctx).Where("key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s", key)
	}
	return e.Value, nil
}

func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	e := entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := db.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&e).Error
	return errors.Wrapf(err, "setting %s", key)
}

func (db *DB) Delete(ctx context.Context, key string) error {
	err := db.db.WithContext(ctx).Where("key = ?", key).Delete(&entry{}).Error
	return errors.Wrapf(err, "deleting %s", key)
}

func (db *DB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
