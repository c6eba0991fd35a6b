package compose

// Instantiate wraps a template so each subscription gets an isolated copy of
// any state cells and emitters inside it. One probe instance is built eagerly
// at wrap time to expose the schema surface and the tag storage; it is never
// run or subscribed. Every Run and Subscribe call invokes the template anew,
// so two concurrently active subscriptions never share closure-captured
// mutable state.
func Instantiate(template func() Component) Component {
	probe := template()
	w := &instantiated{
		base:     newBase(probe.InputSchema(), probe.OutputSchema()),
		probe:    probe,
		template: template,
	}
	for key := range probe.StatusKeys() {
		w.status[key] = struct{}{}
	}
	return w
}

type instantiated struct {
	base
	probe    Component
	template func() Component
}

// Tags live on the probe, so every tag the template sets is visible on the
// wrapper.
func (w *instantiated) GetTag(tag any) (any, bool) { return w.probe.GetTag(tag) }
func (w *instantiated) SetTag(tag any, val any)    { w.probe.SetTag(tag, val) }

func (w *instantiated) Run(props Props) (any, error) {
	return w.template().Run(props)
}

func (w *instantiated) Subscribe(props Props, cb Callback) (Cleanup, error) {
	return w.template().Subscribe(props, cb)
}
