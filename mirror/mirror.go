// Package mirror defines the optional LED mirroring collaborator: a
// receiver for every LED write the core produces, e.g. a remote web view.
// The core functions identically when no mirror is wired.
package mirror

// Mirror receives LED updates as they are written to the grid.
// Implementations must not block; updates arrive from recording and
// playback paths.
type Mirror interface {
	OnLEDUpdate(x, y int, color [3]uint8)
}

// Nop discards all updates. Used wherever no mirror is configured.
type Nop struct{}

func (Nop) OnLEDUpdate(x, y int, color [3]uint8) {}

// Update is one mirrored LED write.
type Update struct {
	X, Y  int
	Color [3]uint8
}

// Broadcaster fans LED updates out to subscriber channels. Sends are
// non-blocking: a subscriber that falls behind misses updates rather than
// stalling the writer.
type Broadcaster struct {
	subs []chan Update
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a new subscriber and returns its channel.
// Subscribe is not safe to call concurrently with OnLEDUpdate; wire all
// subscribers before starting capture or playback.
func (b *Broadcaster) Subscribe(buffer int) <-chan Update {
	ch := make(chan Update, buffer)
	b.subs = append(b.subs, ch)
	return ch
}

func (b *Broadcaster) OnLEDUpdate(x, y int, color [3]uint8) {
	for _, ch := range b.subs {
		select {
		case ch <- Update{X: x, Y: y, Color: color}:
		default:
		}
	}
}
