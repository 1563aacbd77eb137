package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

// ErrSequencerStopped Sequencer 已停止，不再接收工作
var ErrSequencerStopped = errors.New("sequencer stopped")

// job 臨界區包裝，讓 WithLock 可以等待結果
type job struct {
	ctx    context.Context
	fn     func(ctx context.Context) error
	result chan error
}

// Sequencer 單一 goroutine 依序執行所有臨界區的 Locker
//
// WithLock -> Channel -> Run Loop -> fn -> Result Channel -> WithLock(收到結果)
//
// 所有 key 共用同一條輸送帶
type Sequencer struct {
	jobs    chan *job
	done    chan struct{}
	jobPool sync.Pool

	// intake 讀鎖保護送件，寫鎖關閉入口；closed 之後不再有人能放上輸送帶
	intake sync.RWMutex
	closed bool
}

// NewSequencer 建立 Sequencer，buffer 為輸送帶容量
func NewSequencer(buffer int) *Sequencer {
	if buffer <= 0 {
		buffer = 1000
	}
	return &Sequencer{
		jobs: make(chan *job, buffer),
		done: make(chan struct{}),
		jobPool: sync.Pool{
			New: func() interface{} {
				return &job{result: make(chan error, 1)}
			},
		},
	}
}

// Start 啟動執行迴圈 (非同步)，ctx 結束後會把剩下的工作做完再停止
func (s *Sequencer) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sequencer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case j := <-s.jobs:
			s.process(j)
		}
	}
}

// shutdown 先關閉入口再清空輸送帶
// 關閉入口期間迴圈持續消化，拿著讀鎖的送件方不會卡在滿載的 channel
func (s *Sequencer) shutdown() {
	sealed := make(chan struct{})
	go func() {
		s.intake.Lock()
		s.closed = true
		s.intake.Unlock()
		close(sealed)
	}()
	for {
		select {
		case j := <-s.jobs:
			s.process(j)
		case <-sealed:
			s.drain()
			close(s.done)
			return
		}
	}
}

func (s *Sequencer) drain() {
	for {
		select {
		case j := <-s.jobs:
			s.process(j)
		default:
			return
		}
	}
}

func (s *Sequencer) process(j *job) {
	if err := j.ctx.Err(); err != nil {
		j.result <- err
		return
	}
	j.result <- j.fn(j.ctx)
}

// WithLock 將 fn 放上輸送帶並等待執行結果
func (s *Sequencer) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	s.intake.RLock()
	if s.closed {
		s.intake.RUnlock()
		return ErrSequencerStopped
	}

	j := s.jobPool.Get().(*job)
	j.ctx = ctx
	j.fn = fn
	select {
	case s.jobs <- j:
		s.intake.RUnlock()
	case <-ctx.Done():
		s.intake.RUnlock()
		s.recycle(j)
		return ctx.Err()
	}

	// 入口關閉前排入的工作必定在 done 之前被處理，一定等得到結果
	err := <-j.result
	s.recycle(j)
	return err
}

func (s *Sequencer) recycle(j *job) {
	j.ctx, j.fn = nil, nil
	s.jobPool.Put(j)
}

var _ usecase.Locker = (*Sequencer)(nil)
