package ethmac

import "sync/atomic"

// Waker is a single-slot notification target shared between a consumer and an
// interrupt handler. Registering overwrites any previous registration so only the
// last registered function is invoked. Wake consumes the registration: a consumer
// re-registers every time it goes back to sleep. Multiple wakes between
// registrations coalesce into one.
//
// The zero value is ready to use. Wake is safe to call from interrupt context as
// long as the registered function is.
type Waker struct {
	fn atomic.Pointer[func()]
}

// Register sets fn as the function called on the next Wake. A nil fn clears the slot.
func (w *Waker) Register(fn func()) {
	if fn == nil {
		w.fn.Store(nil)
		return
	}
	w.fn.Store(&fn)
}

// Wake invokes and clears the registered function, if any.
func (w *Waker) Wake() {
	fn := w.fn.Swap(nil)
	if fn != nil {
		(*fn)()
	}
}

// Clear drops any registration without invoking it.
func (w *Waker) Clear() {
	w.fn.Store(nil)
}
