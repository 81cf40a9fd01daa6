package menu

// Emitter delivers a payload-less notification to the frontend.
type Emitter interface {
	Emit(event string)
}

// Controller translates menu clicks into notifications. It holds no state.
type Controller struct {
	emitter Emitter
}

func NewController(emitter Emitter) *Controller {
	return &Controller{emitter: emitter}
}

// Click emits the notification bound to id and reports whether id was known.
// Unknown ids are ignored.
func (c *Controller) Click(id ItemID) bool {
	ev, ok := EventFor(id)
	if !ok {
		return false
	}
	c.emitter.Emit(string(ev))
	return true
}
