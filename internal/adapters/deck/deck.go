// Package deck is the hardware boundary. Everything above it deals in
// ui.Frame and KeyEvent; the HID protocol, bitmap format and key
// geometry stay in here.
package deck

// KeyEvent is one press or release, by key position.
type KeyEvent struct {
	Index   int
	Pressed bool
}
