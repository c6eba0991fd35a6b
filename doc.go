// Package compose provides a reactive dataflow composition library for Go.
//
// # Overview
//
// The package organizes code around three core concepts:
//
//  1. Components: typed functions from a named-input record to an output,
//     observable one-shot (Run) or continuously (Subscribe)
//  2. Composition: operators that wire one component's output into another's
//     named input, producing new components bottom-up
//  3. Sentinels: Loading and Failure values that flow in place of real data
//     and short-circuit downstream computation by default
//
// # Basic Usage
//
// Create leaf components and wire them together:
//
//	add := compose.Func(
//	    compose.Fields{"a": schema.Number(), "b": schema.Number()},
//	    schema.Number(),
//	    func(props compose.Props) (any, error) {
//	        return props["a"].(float64) + props["b"].(float64), nil
//	    },
//	)
//
//	display := compose.Func(
//	    compose.Fields{"sum": schema.Number(), "label": schema.String()},
//	    schema.String(),
//	    func(props compose.Props) (any, error) {
//	        return fmt.Sprintf("%s: %v", props["label"], props["sum"]), nil
//	    },
//	)
//
//	card, err := compose.Compose(display, "sum", add)
//	// card's inputs are {a, b, label}; its output is display's output
//
// Resolve once:
//
//	out, err := card.Run(compose.Props{"a": 10.0, "b": 20.0, "label": "Total"})
//
// Or observe continuously:
//
//	cleanup, err := card.Subscribe(props, func(v any) { ... })
//	defer cleanup()
//
// # Asynchronous results
//
// A run function may return a *Future instead of an immediate value. On the
// subscribe path the subscriber sees Loading synchronously, then the settled
// value, or a *Failure wrapping the error:
//
//	fetch := compose.Func(
//	    compose.Fields{"id": schema.String()},
//	    schema.Number(),
//	    func(props compose.Props) (any, error) {
//	        id := props["id"].(string)
//	        return compose.Go(func() (any, error) {
//	            return lookup(id)
//	        }), nil
//	    },
//	)
//
// Run returns the pending result verbatim; Await it directly when resolving
// one-shot. A synchronous result never produces a Loading sentinel.
//
// # Sentinels and status keys
//
// By default a component receiving Loading or a *Failure on any input
// short-circuits: the sentinel is delivered downstream unchanged and the
// component's own logic never runs. Inputs listed in the component's status
// keys opt out and see sentinels literally:
//
//	spinner := compose.Func(fields, out, run, compose.WithStatusKeys("data"))
//
// # State cells
//
// State creates a mutable value exposed as a zero-input component plus an
// external setter. Subscribers receive the current value immediately and
// every subsequent set:
//
//	counter, setCounter := compose.State(schema.Number(), 0.0)
//	ui := compose.MustCompose(display, "sum", counter)
//	cleanup, _ := ui.Subscribe(compose.Props{"label": "Count"}, onValue)
//	setCounter(1.0)
//
// # Emitters
//
// Emitter adapts push-based sources (timers, sockets, external stores). The
// body receives (props, emit) and returns the cleanup stopping the source.
// If nothing was emitted synchronously, subscribers receive Loading first:
//
//	ticks := compose.Source(schema.Number(), func(emit compose.EmitFunc) (compose.Cleanup, error) {
//	    t := time.NewTicker(time.Second)
//	    go func() {
//	        for range t.C {
//	            emit(time.Now().Second())
//	        }
//	    }()
//	    return func() error { t.Stop(); return nil }, nil
//	})
//
// # Feedback edges
//
// Feedback closes a loop: an input is fed the component's own previous
// output, seeded with an initial value. The accumulator is read passively,
// so the loop never triggers itself:
//
//	step := compose.Func(
//	    compose.Fields{"tick": schema.Number(), "total": schema.Number()},
//	    schema.Number(),
//	    sumRun,
//	)
//	running := compose.MustFeedback(compose.MustCompose(step, "tick", ticks), "total", 0.0)
//
// # Instantiation
//
// Instantiate wraps a template producing a fresh component graph, so each
// subscription gets isolated copies of internal state cells and emitters:
//
//	widget := compose.Instantiate(func() compose.Component {
//	    local, setLocal := compose.State(schema.Number(), 0.0)
//	    return buildWidget(local, setLocal)
//	})
//
// # Errors
//
// Construction mistakes return *ConfigError (the Must* variants panic).
// Values failing a schema at a compose boundary produce *BoundaryError; when
// the failing value arrives mid-stream on a subscription there is no caller
// to return to, and the error panics on the delivering goroutine. A failing
// asynchronous computation observed via Subscribe becomes a *Failure
// sentinel; the same failure observed via Run surfaces as an ordinary error.
//
// # Extensions
//
// Observe wraps a component so extensions see its subscription traffic:
//
//	c := compose.Observe(card, extensions.NewLoggingExtension(handler))
//
// # Visualization
//
// Draw renders a composite's wiring as a terminal tree:
//
//	fmt.Println(compose.Draw(card))
//
// # Thread Safety
//
// All operations are safe for concurrent use. Deliveries within one
// subscription are serialized and ordered; independent subscriptions have no
// ordering relative to each other. A callback may synchronously invoke its
// own subscription's cleanup; the value in flight is delivered and nothing
// after it.
package compose
