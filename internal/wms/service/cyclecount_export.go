package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/repository"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ==================== 盘点导入/导出 ====================

var varianceExportHeaders = []string{
	"序号", "库区", "SKU编码", "批次", "期望数量", "实盘数量", "差异",
	"盘点人", "盘点时间", "备注",
}

// ExportVarianceReport 导出盘点差异报表为xlsx
func (s *CycleCountService) ExportVarianceReport(ctx context.Context, sessionID string) (*excelize.File, string, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", NotFoundErr("盘点会话不存在: %s", sessionID)
		}
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "差异报表"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range varianceExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	// 逐分区写入数据行
	row := 1
	itemCount := 0
	var netVariance float64
	for zi := range session.Zones {
		zone := &session.Zones[zi]
		zoneCode := zone.ZoneID
		if zone.Zone != nil {
			zoneCode = zone.Zone.Code
		}
		for _, item := range zone.Items {
			row++
			itemCount++
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), itemCount)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), zoneCode)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.SKUCode)
			if item.BatchID != nil {
				f.SetCellValue(sheet, fmt.Sprintf("D%d", row), *item.BatchID)
			}
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.QuantityExpected)
			if item.IsScanned {
				f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.QuantityActual)
				f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.Variance)
				f.SetCellValue(sheet, fmt.Sprintf("H%d", row), item.ScannedBy)
				netVariance += item.Variance
				if item.ScannedAt != nil {
					f.SetCellValue(sheet, fmt.Sprintf("I%d", row), item.ScannedAt.Format("2006-01-02 15:04"))
				}
			}
			f.SetCellValue(sheet, fmt.Sprintf("J%d", row), item.Notes)
		}
	}

	// 底部汇总行
	summaryRow := row + 1
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "汇总")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", summaryRow), fmt.Sprintf("总行项数: %d", itemCount))
	f.SetCellValue(sheet, fmt.Sprintf("G%d", summaryRow), netVariance)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("J%d", summaryRow), summaryStyle)

	colWidths := []float64{6, 10, 16, 14, 10, 10, 8, 12, 18, 20}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("CycleCount_%s.xlsx", session.Code)
	return f, filename, nil
}

// SnapshotImportResult 快照导入结果
type SnapshotImportResult struct {
	Session  *entity.CycleCountSession `json:"session"`
	Imported int                       `json:"imported"`
	Skipped  int                       `json:"skipped"`
}

// ImportSnapshot 从库存快照文件创建盘点会话
// 制表符分隔，列: 库区编码、SKU编码、期望数量、批次(可选)。
// 文件按GBK解码（国内Excel默认导出编码），首行表头跳过。
func (s *CycleCountService) ImportSnapshot(ctx context.Context, orgID, userID, branchID, name, countType string, reader io.Reader) (*SnapshotImportResult, error) {
	// GBK → UTF-8
	utf8Reader := transform.NewReader(reader, simplifiedchinese.GBK.NewDecoder())

	result := &SnapshotImportResult{}
	zoneItems := map[string][]CreateCycleCountItem{}
	var zoneOrder []string

	scanner := bufio.NewScanner(utf8Reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		// 第一行是表头，跳过
		if lineNo == 1 {
			continue
		}

		fields := strings.Split(line, "\t")
		for i := range fields {
			fields[i] = strings.Trim(fields[i], "\"")
		}
		if len(fields) < 3 || fields[0] == "" || fields[1] == "" {
			result.Skipped++
			continue
		}

		qty, perr := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if perr != nil || qty < 0 {
			result.Skipped++
			continue
		}

		variant, verr := s.catalog.FindVariantBySKU(ctx, strings.TrimSpace(fields[1]))
		if verr != nil {
			if errors.Is(verr, repository.ErrNotFound) {
				result.Skipped++
				continue
			}
			return nil, verr
		}

		item := CreateCycleCountItem{
			VariantID:        variant.ID,
			QuantityExpected: qty,
		}
		if len(fields) > 3 && fields[3] != "" {
			batch := strings.TrimSpace(fields[3])
			item.BatchID = &batch
		}

		zoneCode := strings.TrimSpace(fields[0])
		if _, seen := zoneItems[zoneCode]; !seen {
			zoneOrder = append(zoneOrder, zoneCode)
		}
		zoneItems[zoneCode] = append(zoneItems[zoneCode], item)
		result.Imported++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if result.Imported == 0 {
		return nil, ValidationErr("快照文件没有可导入的行")
	}

	req := &CreateCycleCountRequest{
		BranchID: branchID,
		Name:     name,
		Type:     countType,
	}
	for _, zoneCode := range zoneOrder {
		zone, zerr := s.zones.FindByCode(ctx, branchID, zoneCode)
		if zerr != nil {
			if errors.Is(zerr, repository.ErrNotFound) {
				return nil, NotFoundErr("库区不存在: %s", zoneCode)
			}
			return nil, zerr
		}
		req.Zones = append(req.Zones, CreateCycleCountZone{
			ZoneID: zone.ID,
			Items:  zoneItems[zoneCode],
		})
	}

	session, err := s.CreateSession(ctx, orgID, userID, req)
	if err != nil {
		return nil, err
	}
	result.Session = session

	s.logger.Info("库存快照已导入",
		zap.String("session_code", session.Code),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
