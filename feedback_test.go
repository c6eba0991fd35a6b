package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/composefn/compose-go/pkg/schema"
)

func incComponent() Component {
	return Func(
		Fields{"prev": schema.Number()},
		schema.Number(),
		func(props Props) (any, error) {
			return props["prev"].(float64) + 1, nil
		},
	)
}

func TestFeedbackRunAccumulates(t *testing.T) {
	counter := MustFeedback(incComponent(), "prev", 0.0)

	for want := 1.0; want <= 5.0; want++ {
		got, err := counter.Run(Props{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFeedbackHidesClosedInput(t *testing.T) {
	scaled := Func(
		Fields{"prev": schema.Number(), "step": schema.Number()},
		schema.Number(),
		func(props Props) (any, error) {
			return props["prev"].(float64) + props["step"].(float64), nil
		},
	)
	counter := MustFeedback(scaled, "prev", 0.0)

	assert.ElementsMatch(t, []string{"step"}, counter.InputSchema().Keys())

	got, err := counter.Run(Props{"step": 10.0})
	require.NoError(t, err)
	assert.Equal(t, 10.0, got)

	got, err = counter.Run(Props{"step": 5.0})
	require.NoError(t, err)
	assert.Equal(t, 15.0, got)
}

func TestFeedbackAsyncRunRecordsAfterSettle(t *testing.T) {
	slowInc := Func(
		Fields{"prev": schema.Number()},
		schema.Number(),
		func(props Props) (any, error) {
			prev := props["prev"].(float64)
			return Go(func() (any, error) {
				return prev + 1, nil
			}), nil
		},
	)
	counter := MustFeedback(slowInc, "prev", 0.0)

	for want := 1.0; want <= 3.0; want++ {
		result, err := counter.Run(Props{})
		require.NoError(t, err)
		got, err := AwaitAs[float64](context.Background(), result.(*Future))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFeedbackAccumulatorFrozenPerSubscription(t *testing.T) {
	c := newCollector()
	counter := MustFeedback(incComponent(), "prev", 0.0)

	// The accumulator is read once per Subscribe; a single subscription to a
	// pure component delivers one value and never re-invokes itself.
	cleanup, err := counter.Subscribe(Props{}, c.cb)
	require.NoError(t, err)
	require.Equal(t, []any{1.0}, c.snapshot())
	require.NoError(t, cleanup())

	// The next subscription observes the recorded output.
	c2 := newCollector()
	cleanup, err = counter.Subscribe(Props{}, c2.cb)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, []any{2.0}, c2.snapshot())
}

func TestFeedbackSentinelsNeverEnterAccumulator(t *testing.T) {
	c := newCollector()
	flaky := Func(
		Fields{"prev": schema.Number()},
		schema.Number(),
		func(props Props) (any, error) {
			prev := props["prev"].(float64)
			return Go(func() (any, error) {
				return prev + 1, nil
			}), nil
		},
	)
	counter := MustFeedback(flaky, "prev", 0.0)

	cleanup, err := counter.Subscribe(Props{}, c.cb)
	require.NoError(t, err)
	values := c.waitFor(t, 2)
	require.True(t, IsLoading(values[0]))
	require.Equal(t, 1.0, values[1])
	require.NoError(t, cleanup())

	// Loading was delivered but must not have been recorded: the next
	// subscription is seeded with 1, not with the sentinel.
	c2 := newCollector()
	cleanup, err = counter.Subscribe(Props{}, c2.cb)
	require.NoError(t, err)
	defer cleanup()

	values = c2.waitFor(t, 2)
	assert.Equal(t, 2.0, values[1])
}

func TestFeedbackUnknownKey(t *testing.T) {
	_, err := Feedback(incComponent(), "nope", 0.0)

	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "nope", cfg.Key)
}

func TestFeedbackSchemaMismatch(t *testing.T) {
	stringify := Func(
		Fields{"prev": schema.Number()},
		schema.String(),
		func(props Props) (any, error) { return "", nil },
	)

	_, err := Feedback(stringify, "prev", 0.0)

	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
}

func TestFeedbackInitialValueValidated(t *testing.T) {
	_, err := Feedback(incComponent(), "prev", "not a number")

	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Contains(t, cfg.Reason, "initial value rejected")
}

func TestMustFeedbackPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustFeedback(incComponent(), "nope", 0.0)
	})
}
