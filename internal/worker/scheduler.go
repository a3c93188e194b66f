package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ogurasousui/hr-promotion-core/internal/core/promotion"
	"github.com/ogurasousui/hr-promotion-core/internal/core/tenant"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Sweeper は1テナント分の昇格スイープを実行します。
type Sweeper interface {
	SweepTenant(ctx context.Context, companyID string) promotion.SweepResult
}

const defaultTenantConcurrency = 4

// Scheduler は全アクティブテナントの昇格スイープを毎日定刻に起動します。
type Scheduler struct {
	tenants     tenant.Repository
	sweeper     Sweeper
	log         logrus.FieldLogger
	clock       Clock
	runHour     int
	concurrency int

	mu     sync.Mutex
	handle *Handle
}

// NewScheduler は Scheduler を生成します。runHour は 0〜23 の実行時刻(サーバーローカル)です。
func NewScheduler(tenants tenant.Repository, sweeper Sweeper, log logrus.FieldLogger, clock Clock, runHour, concurrency int) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if clock == nil {
		clock = realClock{}
	}
	if runHour < 0 || runHour > 23 {
		runHour = 0
	}
	if concurrency <= 0 {
		concurrency = defaultTenantConcurrency
	}
	return &Scheduler{
		tenants:     tenants,
		sweeper:     sweeper,
		log:         log,
		clock:       clock,
		runHour:     runHour,
		concurrency: concurrency,
	}
}

// Handle は起動中のスケジューラの所有権を表します。Stop は Handle の保有者だけが呼べます。
type Handle struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Stop は定期実行を取り消し、スケジューラの終了を待ちます。
// 実行中のスイープは中断せず、完走してから停止します。
func (h *Handle) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Start はスイープを一度即時に実行したうえで、毎日の定期実行を登録し Handle を返します。
// 起動済みの状態で再度呼ばれた場合はタイマーを二重に登録せず、警告ログを出して既存の Handle を返します。
func (s *Scheduler) Start(ctx context.Context) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		s.log.Warn("promotion scheduler already running, ignoring start")
		return s.handle
	}

	h := &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.handle = h

	go s.run(ctx, h)

	s.log.WithField("run_hour", s.runHour).Info("promotion scheduler started")
	return h
}

// TriggerTenant は運用・テスト用に1テナント分のスイープを即時実行します。
func (s *Scheduler) TriggerTenant(ctx context.Context, companyID string) promotion.SweepResult {
	return s.sweeper.SweepTenant(ctx, companyID)
}

func (s *Scheduler) run(ctx context.Context, h *Handle) {
	defer close(h.done)
	defer func() {
		s.mu.Lock()
		if s.handle == h {
			s.handle = nil
		}
		s.mu.Unlock()
	}()

	// 起動時に一度実行し、停止していた間に適用日を迎えた昇格を処理する。
	s.sweepAll(ctx)

	for {
		timer := time.NewTimer(s.untilNextRun())
		select {
		case <-h.stop:
			timer.Stop()
			s.log.Info("promotion scheduler stopped")
			return
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("promotion scheduler context cancelled")
			return
		case <-timer.C:
			s.sweepAll(ctx)
		}
	}
}

// untilNextRun は次の実行時刻(翌日の runHour 時、サーバーローカル)までの残り時間を返します。
func (s *Scheduler) untilNextRun() time.Duration {
	now := s.clock.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.runHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// sweepAll はアクティブな全テナントを列挙し、上限付きの並行度でスイープします。
// 1テナントの失敗や panic が他テナントのスイープを中断させることはありません。
func (s *Scheduler) sweepAll(ctx context.Context) {
	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to list active tenants")
		return
	}

	if len(tenants) == 0 {
		s.log.Debug("no active tenants, skipping promotion sweep")
		return
	}

	var (
		mu    sync.Mutex
		total promotion.SweepResult
	)

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, t := range tenants {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.log.WithField("company_id", t.ID).Errorf("tenant sweep panicked: %v", r)
					mu.Lock()
					total.Failed++
					mu.Unlock()
				}
			}()

			result := s.sweeper.SweepTenant(ctx, t.ID)

			mu.Lock()
			total.Applied += result.Applied
			total.Failed += result.Failed
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	s.log.WithFields(logrus.Fields{
		"tenants": len(tenants),
		"applied": total.Applied,
		"failed":  total.Failed,
	}).Info("promotion sweep completed")
}
