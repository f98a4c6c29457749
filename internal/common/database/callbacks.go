package database

import (
	"time"

	"gorm.io/gorm"
)

// QueryObserver 数据库查询观测
type QueryObserver interface {
	ObserveDBQuery(operation, table string, duration time.Duration)
}

const startTimeKey = "spacer:query_start"

// RegisterQueryObserver 通过 GORM 回调记录每条语句的耗时
func RegisterQueryObserver(db *gorm.DB, observer QueryObserver) error {
	if observer == nil {
		return nil
	}

	before := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startTimeKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			observer.ObserveDBQuery(operation, tx.Statement.Table, time.Since(start))
		}
	}

	cb := db.Callback()
	registrations := []struct {
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, r := range registrations {
		if err := r.before("spacer:before_"+r.operation, before); err != nil {
			return err
		}
		if err := r.after("spacer:after_"+r.operation, after(r.operation)); err != nil {
			return err
		}
	}
	return nil
}
