package errcode

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	PersistErrorBase = iota * 1000
	DiskErrorBase
	ConfigErrorBase
)

type ProjectError struct {
	Module string
	Code   int
	Desc   string
}

func (e ProjectError) Error() string {
	return fmt.Sprintf("module: %s, global errcode: %v,  desc: %s", e.Module, e.Code, e.Desc)
}

func getCodeAndName(errCode fmt.Stringer) (int, string) {
	code := 0
	name := ""

	switch t := errCode.(type) {
	case PersistErr:
		code = int(t)
		name = "persist"
	case DiskErr:
		code = int(t)
		name = "disk"
	case ConfigErr:
		code = int(t)
		name = "config"
	default:
	}

	return code, name
}

// IsErrorCode reports whether err, or the cause it wraps, carries errCode.
func IsErrorCode(err error, errCode fmt.Stringer) bool {
	if err == nil {
		return false
	}
	e, ok := errors.Cause(err).(ProjectError)
	icode, _ := getCodeAndName(errCode)
	return ok && icode == e.Code
}

func New(errCode fmt.Stringer) error {
	code, name := getCodeAndName(errCode)

	return ProjectError{
		Module: name,
		Code:   code,
		Desc:   errCode.String(),
	}
}

// NewWithDesc builds a ProjectError whose description is a user-facing
// message instead of the code name.
func NewWithDesc(errCode fmt.Stringer, format string, args ...interface{}) error {
	code, name := getCodeAndName(errCode)

	return ProjectError{
		Module: name,
		Code:   code,
		Desc:   fmt.Sprintf(format, args...),
	}
}
