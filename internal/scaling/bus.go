package scaling

// ProportionUpdated announces a new scale factor. Origin is the ingredient
// whose edit produced it, or nil for a reset.
type ProportionUpdated struct {
	Origin *Ingredient
	Factor float64
}

// Listener receives ProportionUpdated events.
type Listener interface {
	OnProportionUpdated(ProportionUpdated)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(ProportionUpdated)

// OnProportionUpdated calls f.
func (f ListenerFunc) OnProportionUpdated(ev ProportionUpdated) {
	f(ev)
}

type subscription struct {
	listener Listener
	id       int
}

// Bus delivers ProportionUpdated events to the ingredients of one recipe view
// and to any other listener, always skipping the event's origin. Delivery is
// synchronous, in subscription order.
type Bus struct {
	subs   []subscription
	nextID int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers l and returns a function that removes it again.
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, listener: l})

	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every subscriber except ev.Origin.
func (b *Bus) Publish(ev ProportionUpdated) {
	// Listeners may unsubscribe while being notified.
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)

	for _, s := range subs {
		if ev.Origin != nil {
			if ing, ok := s.listener.(*Ingredient); ok && ing == ev.Origin {
				continue
			}
		}
		s.listener.OnProportionUpdated(ev)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	return len(b.subs)
}
