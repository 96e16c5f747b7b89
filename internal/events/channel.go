package events

// SubscribeToChannel forwards events of type T to ch for consumers that
// select on a channel, such as the simulator's update loop. Events are
// dropped when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return On(bus, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
