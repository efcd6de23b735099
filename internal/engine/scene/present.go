package scene

import "time"

// PresentIdle is the delay between presentation loop iterations.
const PresentIdle = 10 * time.Millisecond

// Surface is a visible window the offscreen frame is copied to.
type Surface interface {
	// Blit copies the already rendered frame to the window.
	Blit() error
	// PollClose drains pending window events and reports whether a close
	// request was among them.
	PollClose() bool
}

// PresentLoop shows the frame until the first close signal. Each iteration
// sleeps for idle, blits, then polls events. Nothing is re-rendered.
func PresentLoop(s Surface, idle time.Duration) error {
	for {
		time.Sleep(idle)
		if err := s.Blit(); err != nil {
			return err
		}
		if s.PollClose() {
			return nil
		}
	}
}
