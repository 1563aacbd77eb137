package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

type recorder struct {
	got []string
	err error
}

func (r *recorder) Publish(_ context.Context, e domain.TransferCompleted) error {
	r.got = append(r.got, e.TxID)
	return r.err
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	boom := errors.New("kafka down")
	a := &recorder{err: boom}
	b := &recorder{}
	m := NewMulti(nil, Named{Name: "kafka", Publisher: a}, Named{Name: "graph", Publisher: b})

	err := m.Publish(context.Background(), domain.TransferCompleted{TxID: "TX-1"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"TX-1"}, a.got)
	assert.Equal(t, []string{"TX-1"}, b.got)
	assert.Equal(t, 2, m.Len())
}

func TestMulti_EmptyAndNoop(t *testing.T) {
	assert.NoError(t, NewMulti(nil).Publish(context.Background(), domain.TransferCompleted{}))
	assert.NoError(t, Noop{}.Publish(context.Background(), domain.TransferCompleted{}))
}
