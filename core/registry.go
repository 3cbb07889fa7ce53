package core

// MaxLines is the number of software serial lines that can be active at
// once. Bounded because the interrupt trampoline table is fixed-size.
const MaxLines = 10

// edgeSink receives pin-change interrupt dispatches for one registered line.
type edgeSink interface {
	handleEdge()
}

// Registry routes anonymous pin-change interrupts to the owning line
// instance. The platform attach primitive cannot carry an argument to its
// callback, so each line reserves a small integer slot before its interrupt
// is armed and releases it on shutdown. One Registry is constructed at
// startup and shared by all lines; it is the only cross-line resource.
type Registry struct {
	slots [MaxLines]edgeSink
}

// NewRegistry returns an empty instance registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// acquire reserves a free slot for s and returns its index, or -1 if the
// table is full. Runs with interrupts masked so a slot can never be observed
// half-assigned by a concurrent dispatch.
func (r *Registry) acquire(s edgeSink) int {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	for i := range r.slots {
		if r.slots[i] == nil {
			r.slots[i] = s
			return i
		}
	}
	return -1
}

// release frees a slot. Must be called only after the slot's interrupt has
// been detached; masking interrupts here closes the window where an
// in-flight event could fire into a freed slot.
func (r *Registry) release(slot int) {
	if slot < 0 || slot >= len(r.slots) {
		return
	}
	state := disableInterrupts()
	r.slots[slot] = nil
	restoreInterrupts(state)
}

// handlerFor returns the bare callback handed to the interrupt controller
// for a slot. The slot index is bound at registration time; dispatch at
// interrupt time is a table lookup plus one interface call.
func (r *Registry) handlerFor(slot int) func() {
	return func() {
		if s := r.slots[slot]; s != nil {
			s.handleEdge()
		}
	}
}
