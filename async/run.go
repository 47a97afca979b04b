// Package async contains the one concurrency helper the CLI needs: running
// the app body in a goroutine so main can select between its result and an
// interrupt.
package async

// Run calls f in a goroutine and delivers its result on the returned channel.
func Run[T any](f func() T) <-chan T {
	c := make(chan T, 1)
	go func() {
		c <- f()
	}()
	return c
}
