package cari

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TrafficClass selects which host ordering an operation is sent to.
type TrafficClass int

const (
	Read TrafficClass = iota
	Write
)

func (tc TrafficClass) String() string {
	switch tc {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("TrafficClass(%d)", int(tc))
	}
}

// Operation is one logical request. It is not modified once handed to
// Dispatch.
type Operation struct {
	Method  string
	Path    string
	Body    Record
	Class   TrafficClass
	Timeout time.Duration // per attempt; zero uses the client default
}

// Validate checks the operation can be dispatched.
func (op Operation) Validate() error {
	if op.Path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidOperation)
	}
	if !strings.HasPrefix(op.Path, "/") {
		return fmt.Errorf("%w: path %q must start with /", ErrInvalidOperation, op.Path)
	}
	switch op.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidOperation, op.Method)
	}
	if op.Class != Read && op.Class != Write {
		return fmt.Errorf("%w: unknown traffic class %d", ErrInvalidOperation, int(op.Class))
	}
	if op.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidOperation)
	}
	return nil
}

func readOp(method, path string, body Record) Operation {
	return Operation{Method: method, Path: path, Body: body, Class: Read}
}

func writeOp(method, path string, body Record) Operation {
	return Operation{Method: method, Path: path, Body: body, Class: Write}
}
