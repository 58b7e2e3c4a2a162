package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"workin-messenger/config"
	"workin-messenger/internal/model"
	dbPkg "workin-messenger/pkg/db"

	"gorm.io/gorm"
)

// 子表在前：message 引用 user，user 引用 avatar
var tables = []string{"message", "user", "avatar"}

func main() {
	cfg := config.LoadConfig()

	db, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbPkg.CloseDB()

	if err := dbPkg.AutoMigrate(&model.Avatar{}, &model.User{}, &model.Message{}); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	fmt.Println("Database connected successfully")
	fmt.Printf("Driver: %s  Database: %s\n", cfg.Database.Driver, cfg.Database.Database)
	fmt.Printf("Avatar directory: %s\n", cfg.Media.AvatarDir)

	// Confirm
	fmt.Printf("\nWARNING: This operation will CLEAR ALL DATA in tables %v and delete all avatar files!\n", tables)
	fmt.Print("Type 'YES' to confirm: ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "YES" {
		fmt.Println("Operation cancelled")
		return
	}

	for _, table := range tables {
		fmt.Printf("Clearing table %s... ", table)
		if err := clearTable(db, cfg.Database.Driver, table); err != nil {
			fmt.Printf("Failed: %v\n", err)
		} else {
			fmt.Println("Success")
		}
	}

	removed, err := clearAvatars(cfg.Media.AvatarDir)
	if err != nil {
		fmt.Printf("Clearing avatar files failed: %v\n", err)
	} else {
		fmt.Printf("Removed %d avatar files\n", removed)
	}

	fmt.Println("\nDatabase reset completed!")
	fmt.Println("All table data cleared, table structure preserved")
	fmt.Println("Auto-increment IDs reset to 1")
}

// clearTable 清空数据并重置自增ID
func clearTable(db *gorm.DB, driver, table string) error {
	quoted := db.Statement.Quote(table)
	switch driver {
	case "postgres":
		return db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", quoted)).Error
	case "mysql":
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", quoted)).Error; err != nil {
			return err
		}
		return db.Exec(fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = 1", quoted)).Error
	default:
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", quoted)).Error; err != nil {
			return err
		}
		// sqlite 只有在使用 AUTOINCREMENT 时才有 sqlite_sequence
		_ = db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table).Error
		return nil
	}
}

func clearAvatars(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
