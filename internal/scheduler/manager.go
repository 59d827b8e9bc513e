package scheduler

import (
	"fmt"

	"github.com/blues/crowdledger/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
}

// NewManager 创建新的任务管理器
func NewManager(jobs ...Job) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	m := &Manager{scheduler: s}
	for _, job := range jobs {
		if err := m.register(job); err != nil {
			s.Shutdown()
			return nil, err
		}
	}
	return m, nil
}

// register 注册任务，上一轮未结束时跳过本轮
func (m *Manager) register(job Job) error {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.GetName(), err)
	}
	m.jobs = append(m.jobs, job)
	return nil
}

// Start 启动任务管理器
func (m *Manager) Start() {
	m.scheduler.Start()
	logger.Info("Task manager started with %d jobs", len(m.jobs))
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
