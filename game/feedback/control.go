package feedback

import "github.com/wricardo/mcp-training/crisisgame/game/host"

// ContinueControl is the button shown once the puzzle is solved. It keeps a
// reference to the renderer that presented it; activating a control whose
// renderer has been torn down or reset returns ErrNoContinue.
type ContinueControl struct {
	handle host.Handle
	owner  *Renderer
}

// Handle returns the factory handle of the control
func (c *ContinueControl) Handle() host.Handle {
	return c.handle
}

// Activate navigates to the owner's parent scene
func (c *ContinueControl) Activate() error {
	if c == nil || c.owner == nil {
		return ErrNoContinue
	}
	return c.owner.activate(c)
}
