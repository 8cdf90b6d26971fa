package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/LJTian/NewsDigest/internal/storage"
	"github.com/robfig/cron/v3"
)

// 延迟执行首轮采集，避免与用户首次打开页面的请求争抢资源，首屏加载更快
const defaultStartupDelay = 15 * time.Second

// Runner 执行一轮采集，pipeline.Pipeline 实现了该接口
type Runner interface {
	Run(ctx context.Context) (storage.Snapshot, error)
}

type Scheduler struct {
	cron   *cron.Cron
	runner Runner

	// 同一时刻只允许一轮采集写文件
	mu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	timer  *time.Timer

	StartupDelay time.Duration
}

func New(spec string, runner Runner) (*Scheduler, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:         c,
		runner:       runner,
		ctx:          ctx,
		cancel:       cancel,
		StartupDelay: defaultStartupDelay,
	}

	if _, err := c.AddFunc(spec, func() { s.run(s.ctx) }); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.timer = time.AfterFunc(s.StartupDelay, func() {
		s.run(s.ctx)
	})
}

// RunOnce 对外暴露的单次执行入口，方便手动触发采集
func (s *Scheduler) RunOnce(ctx context.Context) (storage.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Run(ctx)
}

// Stop 停止调度并等待进行中的任务结束
func (s *Scheduler) Stop() {
	if s.timer != nil {
		s.timer.Stop()
	}
	<-s.cron.Stop().Done()
	s.cancel()
	// 首轮采集可能由 timer 触发，不受 cron 管理
	s.mu.Lock()
	defer s.mu.Unlock()
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	log.Println("start collect job...")
	if _, err := s.RunOnce(ctx); err != nil {
		log.Printf("collect job error: %v", err)
		return
	}
	log.Println("collect job done (all sources)")
}
