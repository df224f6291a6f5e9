package task

import (
	"context"
	"time"

	"github.com/blues/propdao/internal/logger"
	"github.com/blues/propdao/internal/metrics"
	"github.com/go-co-op/gocron/v2"
)

// defaultInterval 默认索引间隔
const defaultInterval = 60 * time.Second

// Scanner 链上事件扫描，monitor.EventMonitor 满足该接口
type Scanner interface {
	Scan(ctx context.Context) (int, error)
}

// ChainIndexJob 链上事件索引任务
type ChainIndexJob struct {
	scanner  Scanner
	interval time.Duration
	timeout  time.Duration
}

// NewChainIndexJob 创建链上事件索引任务，intervalSeconds 非正数时使用默认间隔
func NewChainIndexJob(scanner Scanner, intervalSeconds int) *ChainIndexJob {
	interval := time.Duration(intervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}
	return &ChainIndexJob{
		scanner:  scanner,
		interval: interval,
		timeout:  10 * interval,
	}
}

// GetName 获取任务名称
func (j *ChainIndexJob) GetName() string {
	return "chain_event_indexer"
}

// GetSchedule 获取调度配置
func (j *ChainIndexJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *ChainIndexJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	saved, err := j.scanner.Scan(ctx)
	metrics.RecordIndexRun(time.Since(start), saved, err == nil)
	if err != nil {
		logger.Error("Chain index task failed after %d events: %v", saved, err)
		return
	}

	logger.Info("Chain index task completed. Saved %d events", saved)
}
