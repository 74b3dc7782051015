package scraper

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"WarTrack/internal/config"
	"WarTrack/internal/model"
	"WarTrack/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Scraper 外部数据源接口。返回的行是弱类型字段映射：
// 字段名和类型均不保证，由导入管道在边界处做强制转换。
type Scraper interface {
	FetchEquipments(ctx context.Context) ([]model.RawRecord, error)     // 按日装备损失
	FetchAllEquipments(ctx context.Context) ([]model.RawRecord, error)  // 装备累计总量
	FetchSystems(ctx context.Context) ([]model.RawRecord, error)        // 武器系统损失实例
	FetchAllSystems(ctx context.Context) ([]model.RawRecord, error)     // 武器系统累计总量
}

// OryxScraper 从 oryx_data 镜像拉取CSV的默认实现
type OryxScraper struct {
	cfg        *config.ScraperConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewOryxScraper 创建OryxScraper实例
func NewOryxScraper(cfg *config.ScraperConfig, logger *logrus.Logger) Scraper {
	return &OryxScraper{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

func (s *OryxScraper) FetchEquipments(ctx context.Context) ([]model.RawRecord, error) {
	return s.fetchCSV(ctx, s.cfg.EquipmentsFile)
}

func (s *OryxScraper) FetchAllEquipments(ctx context.Context) ([]model.RawRecord, error) {
	return s.fetchCSV(ctx, s.cfg.AllEquipmentsFile)
}

func (s *OryxScraper) FetchSystems(ctx context.Context) ([]model.RawRecord, error) {
	return s.fetchCSV(ctx, s.cfg.SystemsFile)
}

func (s *OryxScraper) FetchAllSystems(ctx context.Context) ([]model.RawRecord, error) {
	return s.fetchCSV(ctx, s.cfg.AllSystemsFile)
}

// fetchCSV 拉取单个CSV文件并按表头转为RawRecord切片，失败时按配置重试
func (s *OryxScraper) fetchCSV(ctx context.Context, file string) ([]model.RawRecord, error) {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.BaseURL, "/"), file)

	var lastErr error
	attempts := s.cfg.RetryCount + 1
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		records, err := s.fetchOnce(ctx, url)
		if err == nil {
			return records, nil
		}
		lastErr = err
		s.logger.WithError(err).Warnf("拉取%s失败（第%d/%d次）", file, i+1, attempts)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("拉取CSV失败: %s: %w", url, lastErr)
}

func (s *OryxScraper) fetchOnce(ctx context.Context, url string) ([]model.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("非预期状态码: %d", resp.StatusCode)
	}
	return parseCSV(resp.Body)
}

// parseCSV 首行为表头，其余行按表头映射为RawRecord；
// 列数不齐的行按实际列数截断而不是整体失败（来源数据偶有缺列）
func parseCSV(r io.Reader) ([]model.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []model.RawRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取CSV表头失败: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []model.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取CSV数据行失败: %w", err)
		}
		rec := make(model.RawRecord, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
