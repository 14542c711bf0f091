//go:build windows

package term

// watchResize has no SIGWINCH equivalent on Windows; console resize
// detection there goes through a different API this reference backend
// doesn't implement yet, so GetSize is only read once at Start.
func (b *Backend) watchResize() chan struct{} {
	return make(chan struct{})
}
