package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

func TestStore_LoadReturnsCopy(t *testing.T) {
	store := NewStore(&domain.RecordSet{Customers: []*domain.Customer{
		{CustomerID: "CUST001", Account: domain.Account{Balance: decimal.NewFromInt(10)}},
	}})

	rs, err := store.Load(context.Background())
	require.NoError(t, err)
	rs.Customers[0].Account.Balance = decimal.NewFromInt(999)

	again, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, again.Customers[0].Account.Balance.Equal(decimal.NewFromInt(10)))

	require.NoError(t, store.Save(context.Background(), rs))
	again, err = store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, again.Customers[0].Account.Balance.Equal(decimal.NewFromInt(999)))
	assert.Equal(t, 1, store.Saves())
}

func TestStore_CanceledContext(t *testing.T) {
	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Save(ctx, &domain.RecordSet{}), context.Canceled)
}

// counterRace 在臨界區內做 read-modify-write，沒有互斥時會遺失更新
func counterRace(t *testing.T, withLock func(ctx context.Context, key string, fn func(ctx context.Context) error) error) {
	t.Helper()
	const workers = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := withLock(context.Background(), "k", func(ctx context.Context) error {
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, workers, counter)
}

func TestMutexLocker_Serializes(t *testing.T) {
	counterRace(t, NewMutexLocker().WithLock)
}

func TestMutexLocker_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := NewMutexLocker().WithLock(ctx, "k", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSequencer_Serializes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seq := NewSequencer(16)
	seq.Start(ctx)

	counterRace(t, seq.WithLock)
}

func TestSequencer_ReturnsFnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seq := NewSequencer(0)
	seq.Start(ctx)

	err := seq.WithLock(context.Background(), "k", func(ctx context.Context) error {
		return domain.ErrSaveRecords
	})
	assert.ErrorIs(t, err, domain.ErrSaveRecords)
}

func TestSequencer_Stopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	seq := NewSequencer(1)
	seq.Start(ctx)
	cancel()
	<-seq.done

	called := false
	err := seq.WithLock(context.Background(), "k", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrSequencerStopped)
	assert.False(t, called)
	assert.Empty(t, seq.jobs)
}

func TestSequencer_StopWhileEnqueueing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	seq := NewSequencer(2)
	seq.Start(ctx)

	const callers = 200
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ran     int
		ok      int
		stopped int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := seq.WithLock(context.Background(), "k", func(ctx context.Context) error {
				mu.Lock()
				ran++
				mu.Unlock()
				return nil
			})
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				ok++
			case ErrSequencerStopped:
				stopped++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	cancel()

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("callers still waiting after stop")
	}

	<-seq.done
	assert.Equal(t, callers, ok+stopped)
	// 回報成功的次數必須與實際執行次數一致，停止後輸送帶上不留工作
	assert.Equal(t, ok, ran)
	assert.Empty(t, seq.jobs)
}
