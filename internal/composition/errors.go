package composition

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	ErrNoSelection   = errors.New("select photos first")
	ErrTooManyItems  = errors.New("more items selected than the source holds")
	ErrOutputNotFile = errors.New("output path is not a regular file")
)

// Category groups failures by what the user can do about them.
type Category int

const (
	CategoryInput Category = iota + 1
	CategoryResource
	CategoryWrite
	CategoryExport
	CategoryPermission
)

func (c Category) String() string {
	switch c {
	case CategoryInput:
		return "input"
	case CategoryResource:
		return "resource"
	case CategoryWrite:
		return "write"
	case CategoryExport:
		return "export"
	case CategoryPermission:
		return "permission"
	default:
		return "unknown"
	}
}

// Error is the single failure a run reports. Item is the index of the
// item being processed, or -1.
type Error struct {
	Category Category
	Op       string
	Item     int
	Err      error
}

func (e *Error) Error() string {
	if e.Item >= 0 {
		return fmt.Sprintf("%s error: %s item %d: %v", e.Category, e.Op, e.Item, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Category, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// newError wraps err, promoting it to CategoryPermission when the cause is
// a permission failure.
func newError(cat Category, op string, item int, err error) *Error {
	if errors.Is(err, fs.ErrPermission) {
		cat = CategoryPermission
	}
	return &Error{Category: cat, Op: op, Item: item, Err: err}
}

func inputError(op string, err error) *Error {
	return newError(CategoryInput, op, -1, err)
}

// CategoryOf returns the category of err, or 0 when err is not an *Error.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return 0
}

// IsPermission reports whether err was caused by missing filesystem
// permissions, so callers can offer to fix them.
func IsPermission(err error) bool {
	return CategoryOf(err) == CategoryPermission
}
