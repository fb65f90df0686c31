// Package modal implements the conversation detail overlay state machine.
package modal

import (
	"sync"

	"github.com/zhouzirui/midas-viewer/internal/model/viewer"
	"github.com/zhouzirui/midas-viewer/internal/render"
)

// State is either Closed or Open.
type State uint8

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

const (
	// EscapeKey closes the overlay.
	EscapeKey = "Escape"
	// BackdropID is the element id of the overlay backdrop.
	BackdropID = "modal"
)

// Controller tracks which conversation, if any, is shown in the overlay.
// It never touches the network; Open works against the list it is given.
type Controller struct {
	mu       sync.Mutex
	renderer *render.Renderer
	state    State
	index    int
	view     render.ModalView
}

// NewController returns a closed controller.
func NewController(renderer *render.Renderer) *Controller {
	return &Controller{renderer: renderer}
}

// Open shows conversations[index]. An out-of-range index or an empty list
// is ignored and reported as false; the current state is left unchanged.
func (c *Controller) Open(index int, conversations []viewer.Conversation) bool {
	view, ok := c.renderer.Modal(conversations, index)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Open
	c.index = index
	c.view = view
	return true
}

// Close hides the overlay. Closing a closed controller is a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Closed
	c.index = 0
	c.view = render.ModalView{}
}

// HandleKey closes the overlay on Escape. It reports whether the state changed.
func (c *Controller) HandleKey(key string) bool {
	if key != EscapeKey || c.State() != Open {
		return false
	}
	c.Close()
	return true
}

// HandleClick closes the overlay when the click landed on the backdrop
// itself. Clicks inside the content panel carry a different target id and
// are ignored.
func (c *Controller) HandleClick(targetID string) bool {
	if targetID != BackdropID || c.State() != Open {
		return false
	}
	c.Close()
	return true
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the open view and its index. ok is false when closed.
func (c *Controller) Current() (view render.ModalView, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Open {
		return render.ModalView{}, false
	}
	return c.view, true
}

// Index returns the selected conversation index while open.
func (c *Controller) Index() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index, c.state == Open
}
