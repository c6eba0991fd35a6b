package compose

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/composefn/compose-go/pkg/schema"
)

// The tests in this file exercise whole graphs rather than single operations:
// a reactive dashboard built from state cells, a push source wired through a
// formatting chain, and an isolated per-subscription counter.

func TestDashboardGraph(t *testing.T) {
	count, setCount := State(schema.Number(), 0.0)
	title, setTitle := State(schema.String(), "Inbox")

	card := Func(
		Fields{"title": schema.String(), "count": schema.Number(), "suffix": schema.String()},
		schema.String(),
		func(props Props) (any, error) {
			return fmt.Sprintf("%v (%v)%v", props["title"], props["count"], props["suffix"]), nil
		},
		WithName("card"),
	)

	dashboard := MustComposeAll(card, map[string]Component{
		"title": title,
		"count": count,
	})
	require.ElementsMatch(t, []string{"suffix"}, dashboard.InputSchema().Keys())

	c := newCollector()
	cleanup, err := dashboard.Subscribe(Props{"suffix": "!"}, c.cb)
	require.NoError(t, err)

	setCount(3.0)
	setTitle("Archive")
	require.NoError(t, cleanup())
	setCount(99.0)

	assert.Equal(t, []any{"Inbox (0)!", "Inbox (3)!", "Archive (3)!"}, c.snapshot())
}

func TestPushSourceThroughFormattingChain(t *testing.T) {
	var emitReading EmitFunc
	sensor := Source(schema.Number(), func(emit EmitFunc) (Cleanup, error) {
		emitReading = emit
		return nil, nil
	}, WithName("sensor"))

	celsius := Func(
		Fields{"raw": schema.Number()},
		schema.Number(),
		func(props Props) (any, error) {
			return props["raw"].(float64) / 10, nil
		},
		WithName("celsius"),
	)
	label := Func(
		Fields{"temp": schema.Number()},
		schema.String(),
		func(props Props) (any, error) {
			return fmt.Sprintf("%.1f°C", props["temp"]), nil
		},
		WithName("label"),
	)

	chain := MustCompose(label, "temp", MustCompose(celsius, "raw", sensor))

	c := newCollector()
	cleanup, err := chain.Subscribe(Props{}, c.cb)
	require.NoError(t, err)
	defer cleanup()

	// No reading yet: the sensor's Loading propagates through both stages.
	require.Equal(t, 1, c.count())
	require.True(t, IsLoading(c.snapshot()[0]))

	emitReading(215.0)
	emitReading(230.0)

	assert.Equal(t, []any{"21.5°C", "23.0°C"}, c.snapshot()[1:])
}

func TestIsolatedCountersDoNotShareState(t *testing.T) {
	widget := Instantiate(func() Component {
		cell, set := State(schema.Number(), 0.0)
		bump := Func(
			Fields{"n": schema.Number()},
			schema.Number(),
			func(props Props) (any, error) {
				n := props["n"].(float64)
				if n < 2 {
					set(n + 1)
				}
				return n, nil
			},
		)
		return MustCompose(bump, "n", cell)
	})

	first := newCollector()
	c1, err := widget.Subscribe(Props{}, first.cb)
	require.NoError(t, err)
	defer c1()

	second := newCollector()
	c2, err := widget.Subscribe(Props{}, second.cb)
	require.NoError(t, err)
	defer c2()

	// Each subscription drives its own cell from 0 to 2; neither sees the
	// other's mutations.
	assert.Equal(t, []any{0.0, 1.0, 2.0}, first.snapshot())
	assert.Equal(t, []any{0.0, 1.0, 2.0}, second.snapshot())
}

func TestDrawRendersWholeDashboard(t *testing.T) {
	count, _ := State(schema.Number(), 0.0, WithName("count"))
	card := Func(
		Fields{"count": schema.Number()},
		schema.String(),
		func(props Props) (any, error) {
			return fmt.Sprint(props["count"]), nil
		},
		WithName("card"),
	)
	dashboard := MustCompose(card, "count", count)

	out := Draw(dashboard)
	require.True(t, strings.Contains(out, "card"))
	assert.Contains(t, out, "count <- count")
}
