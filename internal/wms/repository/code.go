package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CodeGenerator 单据编码生成器，格式 {PREFIX}-{YYYYMMDD}-{seq:04d}
// 序号按分支本地日窗口计数。count+1 本身不防并发，
// 调用方依赖 (branch_id, code) 唯一索引，冲突后重算序号重试。
type CodeGenerator struct {
	db *gorm.DB
}

func NewCodeGenerator(db *gorm.DB) *CodeGenerator {
	return &CodeGenerator{db: db}
}

// 编码前缀
const (
	CodePrefixPurchaseOrder  = "PO"
	CodePrefixReceiveSession = "RS"
	CodePrefixWorkSession    = "WS"
	CodePrefixReturnRequest  = "RR"
	CodePrefixCycleCount     = "CC"
)

// NextCode 统计分支当日同类记录数，序号 = count + 1
func (g *CodeGenerator) NextCode(ctx context.Context, model interface{}, prefix, branchID string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	now := time.Now().In(loc)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	endOfDay := startOfDay.Add(24 * time.Hour)

	var count int64
	err := g.db.WithContext(ctx).
		Model(model).
		Where("branch_id = ? AND created_at >= ? AND created_at < ?", branchID, startOfDay, endOfDay).
		Count(&count).Error
	if err != nil {
		return "", fmt.Errorf("统计当日单据数失败: %w", err)
	}

	return fmt.Sprintf("%s-%s-%04d", prefix, now.Format("20060102"), count+1), nil
}
