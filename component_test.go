package compose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/composefn/compose-go/pkg/schema"
)

func TestFuncRunReturnsVerbatim(t *testing.T) {
	double := Func(
		Fields{"n": schema.Number()},
		schema.Number(),
		func(props Props) (any, error) {
			return props["n"].(float64) * 2, nil
		},
	)

	val, err := double.Run(Props{"n": 21.0})
	require.NoError(t, err)
	assert.Equal(t, 42.0, val)
}

func TestFuncRunDoesNotValidateInputs(t *testing.T) {
	echo := Func(
		Fields{"n": schema.Number()},
		schema.Number(),
		func(props Props) (any, error) {
			return props["n"], nil
		},
	)

	// Run trusts the caller; validation belongs to compose boundaries.
	val, err := echo.Run(Props{"n": "not a number"})
	require.NoError(t, err)
	assert.Equal(t, "not a number", val)
}

func TestFuncSubscribeSyncDeliversOnceWithoutLoading(t *testing.T) {
	c := newCollector()
	answer := Const(schema.Number(), 42.0)

	cleanup, err := answer.Subscribe(Props{}, c.cb)
	require.NoError(t, err)
	defer cleanup()

	require.Equal(t, []any{42.0}, c.snapshot())
}

func TestFuncSubscribeAsyncDeliversLoadingThenValue(t *testing.T) {
	c := newCollector()
	fetch := Func(
		Fields{"id": schema.String()},
		schema.Number(),
		func(props Props) (any, error) {
			id := props["id"].(string)
			return Go(func() (any, error) {
				return float64(len(id)), nil
			}), nil
		},
	)

	cleanup, err := fetch.Subscribe(Props{"id": "hello"}, c.cb)
	require.NoError(t, err)
	defer cleanup()

	// Loading is delivered synchronously, before Subscribe returns.
	require.True(t, IsLoading(c.snapshot()[0]))

	values := c.waitFor(t, 2)
	assert.Equal(t, 5.0, values[1])
}

func TestFuncSubscribeAsyncFailureBecomesSentinel(t *testing.T) {
	c := newCollector()
	boom := errors.New("boom")
	failing := Func(nil, schema.Number(), func(Props) (any, error) {
		return Go(func() (any, error) {
			return nil, boom
		}), nil
	})

	cleanup, err := failing.Subscribe(Props{}, c.cb)
	require.NoError(t, err)
	defer cleanup()

	values := c.waitFor(t, 2)
	require.True(t, IsLoading(values[0]))

	failure, ok := AsFailure(values[1])
	require.True(t, ok)
	assert.Same(t, boom, failure.Err)
}

func TestFuncRunSurfacesRawRejection(t *testing.T) {
	boom := errors.New("boom")
	failing := Func(nil, schema.Number(), func(Props) (any, error) {
		return Go(func() (any, error) {
			return nil, boom
		}), nil
	})

	result, err := failing.Run(Props{})
	require.NoError(t, err)

	future := result.(*Future)
	_, err = future.Await(context.Background())
	assert.Same(t, boom, err)
}

func TestFuncSubscribeSentinelShortCircuit(t *testing.T) {
	ran := false
	c := newCollector()
	comp := Func(
		Fields{"n": schema.Number()},
		schema.Number(),
		func(Props) (any, error) {
			ran = true
			return 0.0, nil
		},
	)

	cleanup, err := comp.Subscribe(Props{"n": Loading}, c.cb)
	require.NoError(t, err)
	defer cleanup()

	assert.False(t, ran, "run must not be invoked for a sentinel input")
	require.Equal(t, 1, c.count())
	assert.True(t, IsLoading(c.snapshot()[0]))
}

func TestFuncSubscribeStatusKeySeesSentinelLiterally(t *testing.T) {
	c := newCollector()
	comp := Func(
		Fields{"n": schema.Number()},
		schema.String(),
		func(props Props) (any, error) {
			if IsLoading(props["n"]) {
				return "still loading", nil
			}
			return "ready", nil
		},
		WithStatusKeys("n"),
	)

	cleanup, err := comp.Subscribe(Props{"n": Loading}, c.cb)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, []any{"still loading"}, c.snapshot())
}

func TestFuncSubscribeCleanupSuppressesPendingDelivery(t *testing.T) {
	c := newCollector()
	release := make(chan struct{})
	slow := Func(nil, schema.Number(), func(Props) (any, error) {
		return Go(func() (any, error) {
			<-release
			return 1.0, nil
		}), nil
	})

	cleanup, err := slow.Subscribe(Props{}, c.cb)
	require.NoError(t, err)

	require.NoError(t, cleanup())
	close(release)

	time.Sleep(50 * time.Millisecond)
	values := c.snapshot()
	require.Len(t, values, 1, "only the Loading sentinel may be delivered")
	assert.True(t, IsLoading(values[0]))
}

func TestCleanupIdempotent(t *testing.T) {
	c := newCollector()
	answer := Const(schema.Number(), 1.0)

	cleanup, err := answer.Subscribe(Props{}, c.cb)
	require.NoError(t, err)

	require.NoError(t, cleanup())
	require.NoError(t, cleanup())
}

func TestComponentTags(t *testing.T) {
	version := NewTag[string]("version")
	comp := Const(schema.Number(), 1.0, WithTag(version, "1.0.0"), WithName("answer"))

	got, ok := version.Get(comp)
	require.True(t, ok)
	assert.Equal(t, "1.0.0", got)
	assert.Equal(t, "answer", Name().MustGet(comp))
	assert.Equal(t, "fallback", NewTag[string]("missing").GetOrDefault(comp, "fallback"))
}
