package env

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"
)

var objectSeq atomic.Uint64

// Object is a shared handle to a constructed composite value.
//
// Every Environment that binds the handle, directly or inside an array,
// holds one reference to it, and so does every object that received it as
// a member. When the last reference is released the wrapped value is closed
// if it implements [io.Closer], and the object's own members are released.
//
// A nil *Object is the null object (nullptr).
type Object struct {
	value    any
	concrete string
	base     string
	members  []Value
	id       uint64
	refs     atomic.Int64
	closed   atomic.Bool
}

// NewObject wraps value as an object of the given concrete type implementing
// base. The members are values the object was constructed from; the object
// keeps them alive until it is itself released.
func NewObject(concrete, base string, value any, members ...Value) *Object {
	o := &Object{
		value:    value,
		concrete: concrete,
		base:     base,
		id:       objectSeq.Add(1),
	}

	for _, m := range members {
		m = m.copy()
		m.retain()
		o.members = append(o.members, m)
	}

	return o
}

// Type returns the concrete type name, or "nullptr" for the null object.
func (o *Object) Type() string {
	if o == nil {
		return nullName
	}

	return o.concrete
}

// Base returns the abstract base type name.
func (o *Object) Base() string {
	if o == nil {
		return ""
	}

	return o.base
}

// ID returns the process-unique id of the object.
func (o *Object) ID() uint64 {
	if o == nil {
		return 0
	}

	return o.id
}

// Value returns the wrapped value, or nil for the null object.
func (o *Object) Value() any {
	if o == nil {
		return nil
	}

	return o.value
}

// Refs returns the number of holders of the object.
func (o *Object) Refs() int64 {
	if o == nil {
		return 0
	}

	return o.refs.Load()
}

// Closed reports whether the last reference was released.
func (o *Object) Closed() bool {
	return o != nil && o.closed.Load()
}

// String renders the object as <Concrete#id>, or nullptr.
func (o *Object) String() string {
	if o == nil {
		return nullName
	}

	return "<" + o.concrete + "#" + strconv.FormatUint(o.id, 10) + ">"
}

func (o *Object) retain() {
	o.refs.Add(1)
}

func (o *Object) release() error {
	if o.refs.Add(-1) != 0 {
		return nil
	}

	if !o.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error

	if c, ok := o.value.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, ErrClose.With(slog.String("object", o.String())).Wrap(err))
		}
	}

	for _, m := range o.members {
		errs = append(errs, m.release())
	}

	return errors.Join(errs...)
}
