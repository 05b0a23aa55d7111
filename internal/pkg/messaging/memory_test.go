package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryPublishConsume(t *testing.T) {
	broker := NewMemory()
	t.Cleanup(func() { require.NoError(t, broker.Close()) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- broker.Consume(ctx, "auth.code.issued", func(_ context.Context, msg Message) error {
			received <- msg
			return nil
		}, WithAutoAck(true))
	}()

	require.Eventually(t, func() bool {
		broker.mu.RLock()
		defer broker.mu.RUnlock()
		return len(broker.subs["auth.code.issued"]) == 1
	}, time.Second, 10*time.Millisecond)

	_, err := broker.Publish(ctx, "auth.code.issued", OutgoingMessage{
		Body:    []byte(`{"session_id":"s1"}`),
		Headers: []Header{{Key: "event", Value: []byte("auth.code.issued")}},
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		require.JSONEq(t, `{"session_id":"s1"}`, string(msg.Body()))
		require.Equal(t, "auth.code.issued", msg.Header("event"))
		require.Equal(t, "auth.code.issued", msg.Topic())
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestMemoryPublishValidation(t *testing.T) {
	broker := NewMemory()

	_, err := broker.Publish(context.Background(), "", OutgoingMessage{})
	require.ErrorIs(t, err, ErrMemoryTopicRequired)

	_, err = broker.Publish(context.Background(), "t", OutgoingMessage{Delay: time.Second})
	require.ErrorIs(t, err, ErrUnsupported)

	require.NoError(t, broker.Close())
	_, err = broker.Publish(context.Background(), "t", OutgoingMessage{})
	require.Error(t, err)
}

func TestDispatchRecoversAndAcksOnce(t *testing.T) {
	var acks, nacks int
	env := &envelope{
		ack:  func(context.Context) error { acks++; return nil },
		nack: func(context.Context) error { nacks++; return nil },
	}

	err := dispatch(context.Background(), "test", func(context.Context, Message) error {
		panic("boom")
	}, env, true)
	require.Error(t, err)
	require.Equal(t, 0, acks)
	require.Equal(t, 1, nacks)

	require.NoError(t, env.Ack(context.Background()))
	require.Equal(t, 0, acks, "a settled message is not acked again")

	env2 := &envelope{ack: func(context.Context) error { acks++; return nil }}
	require.NoError(t, dispatch(context.Background(), "test", func(context.Context, Message) error { return nil }, env2, true))
	require.Equal(t, 1, acks)

	env3 := &envelope{}
	herr := errors.New("handler failed")
	require.ErrorIs(t, dispatch(context.Background(), "test", func(context.Context, Message) error { return herr }, env3, false), herr)
	require.False(t, env3.responded())
}

func TestNewFromDriver(t *testing.T) {
	m, err := NewFromDriver(DriverMemory, FactoryOptions{})
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, err = NewFromDriver("sqs", FactoryOptions{})
	require.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(DriverKafka, FactoryOptions{})
	require.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(DriverNATS, FactoryOptions{})
	require.ErrorIs(t, err, ErrNATSURLRequired)
}
