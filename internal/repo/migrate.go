package repo

import (
	"fmt"

	"gorm.io/gorm"

	"user-account-service/internal/feature/user"
)

// Migrate 建表；mysql 默认排序规则大小写不敏感，email 列改成二进制排序，
// 唯一索引和按邮箱查询才与其它驱动一致（精确、区分大小写）
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&user.UserModel{}); err != nil {
		return fmt.Errorf("automigrate users: %w", err)
	}
	if stmt := emailCollationSQL(db.Dialector.Name()); stmt != "" {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("set email collation: %w", err)
		}
	}
	return nil
}

func emailCollationSQL(dialect string) string {
	if dialect != "mysql" {
		return ""
	}
	return "ALTER TABLE users MODIFY email VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL"
}
