// Package assert provides the small assertion helpers used by kernel tests.
// Mismatching values are dumped with go-spew so that nested terms show
// their full structure, not only their printed form.
//
// Every helper reports through t.Error and returns whether it held, so a
// test can guard dependent checks with if assert.X(...) { ... }.
package assert

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	MaxDepth:                12,
}

// failure describes a violated assertion. When values is set, got and want
// are dumped below the summary line.
type failure struct {
	op     string
	detail string
	values bool
	got    any
	want   any
}

func mismatch(op string, got, want any) failure {
	return failure{
		op:     op,
		detail: fmt.Sprintf("got %v (%T), want %v (%T)", got, got, want, want),
		values: true,
		got:    got,
		want:   want,
	}
}

func (f failure) report(t testing.TB, msgAndArgs []any) {
	t.Helper()
	var b strings.Builder
	b.WriteString(f.op)
	b.WriteString(": ")
	b.WriteString(f.detail)
	if msg := message(msgAndArgs); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	if f.values {
		b.WriteString("\n--- got\n")
		b.WriteString(dumper.Sdump(f.got))
		b.WriteString("--- want\n")
		b.WriteString(dumper.Sdump(f.want))
	}
	t.Error(b.String())
}

// check reports f unless ok holds.
func check(t testing.TB, ok bool, f func() failure, msgAndArgs []any) bool {
	t.Helper()
	if !ok {
		f().report(t, msgAndArgs)
	}
	return ok
}

// message renders msgAndArgs, treating a leading string as a format.
func message(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 0:
		return ""
	case len(msgAndArgs) > 1:
		if format, ok := msgAndArgs[0].(string); ok {
			return fmt.Sprintf(format, msgAndArgs[1:]...)
		}
	}
	return fmt.Sprint(msgAndArgs...)
}

// Equal asserts got == want.
func Equal[T comparable](t testing.TB, got, want T, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, got == want, func() failure { return mismatch("Equal", got, want) }, msgAndArgs)
}

// NotEqual asserts got != notWant.
func NotEqual[T comparable](t testing.TB, got, notWant T, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, got != notWant, func() failure {
		return failure{op: "NotEqual", detail: fmt.Sprintf("both are %v", got)}
	}, msgAndArgs)
}

// EqualFunc asserts that eq considers got and want equal. It is meant for
// values with their own notion of equality, such as terms up to renaming.
func EqualFunc[T any](t testing.TB, got, want T, eq func(a, b T) bool, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, eq(got, want), func() failure { return mismatch("EqualFunc", got, want) }, msgAndArgs)
}

// DeepEqual asserts reflect.DeepEqual(got, want).
func DeepEqual(t testing.TB, got, want any, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, reflect.DeepEqual(got, want), func() failure { return mismatch("DeepEqual", got, want) }, msgAndArgs)
}

// Nil asserts that v is nil or a nil pointer, map, slice, func or channel.
func Nil(t testing.TB, v any, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, isNil(v), func() failure {
		return failure{op: "Nil", detail: fmt.Sprintf("got %T(%v)", v, v)}
	}, msgAndArgs)
}

// NotNil is the negation of Nil.
func NotNil(t testing.TB, v any, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, !isNil(v), func() failure { return failure{op: "NotNil", detail: "unexpected nil"} }, msgAndArgs)
}

func True(t testing.TB, cond bool, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, cond, func() failure { return failure{op: "True", detail: "condition is false"} }, msgAndArgs)
}

func False(t testing.TB, cond bool, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, !cond, func() failure { return failure{op: "False", detail: "condition is true"} }, msgAndArgs)
}

func Error(t testing.TB, err error, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, err != nil, func() failure { return failure{op: "Error", detail: "expected an error, got nil"} }, msgAndArgs)
}

func NoError(t testing.TB, err error, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, err == nil, func() failure {
		return failure{op: "NoError", detail: fmt.Sprintf("unexpected error: %v", err)}
	}, msgAndArgs)
}

// ErrorIs asserts errors.Is(err, target).
func ErrorIs(t testing.TB, err, target error, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, errors.Is(err, target), func() failure {
		return failure{op: "ErrorIs", detail: fmt.Sprintf("%v is not %v", err, target)}
	}, msgAndArgs)
}

func Contains(t testing.TB, s, substr string, msgAndArgs ...any) bool {
	t.Helper()
	return check(t, strings.Contains(s, substr), func() failure {
		return failure{op: "Contains", detail: fmt.Sprintf("%q does not contain %q", s, substr)}
	}, msgAndArgs)
}

// Len asserts the length of an array, slice, map, string or channel.
func Len(t testing.TB, v any, want int, msgAndArgs ...any) bool {
	t.Helper()
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Slice, reflect.Map, reflect.String, reflect.Chan:
		n := rv.Len()
		return check(t, n == want, func() failure {
			return failure{op: "Len", detail: fmt.Sprintf("got len %d, want %d", n, want), values: true, got: v, want: want}
		}, msgAndArgs)
	case reflect.Invalid:
		// A nil slice passed through an interface arrives untyped.
		return check(t, want == 0, func() failure {
			return failure{op: "Len", detail: fmt.Sprintf("got nil, want len %d", want)}
		}, msgAndArgs)
	}
	return check(t, false, func() failure {
		return failure{op: "Len", detail: fmt.Sprintf("unsupported kind %s", rv.Kind())}
	}, msgAndArgs)
}

// Panics asserts that fn panics.
func Panics(t testing.TB, fn func(), msgAndArgs ...any) bool {
	t.Helper()
	panicked := func() (p bool) {
		defer func() { p = recover() != nil }()
		fn()
		return
	}()
	return check(t, panicked, func() failure { return failure{op: "Panics", detail: "function did not panic"} }, msgAndArgs)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
