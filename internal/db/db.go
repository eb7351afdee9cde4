package db

import (
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/clipforge/clipforge/internal/store"
)

// Connect opens the database and migrates the schema. A mysql DSN
// (user:pass@tcp(...)/db) selects the mysql driver; anything else is treated
// as an sqlite path or URI.
func Connect(dsn string) *gorm.DB {
	var dialector gorm.Dialector
	if strings.Contains(dsn, "@tcp(") {
		dialector = mysql.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	if err := gdb.AutoMigrate(
		&store.Conversation{},
		&store.Message{},
		&store.SavedVideo{},
		&store.RemixReference{},
	); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	return gdb
}
