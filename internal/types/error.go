package types

import (
	"errors"
	"fmt"
)

// Error classes shared by services and handlers, matched with errors.Is
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrUpstream = errors.New("upstream failure")
)

type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// ClassError is a message tagged with one of the error classes
type ClassError struct {
	Message string
	Class   error
	Cause   error
}

func (e *ClassError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the class and the cause to errors.Is/As
func (e *ClassError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Class, e.Cause}
	}
	return []error{e.Class}
}

// NotFoundf returns an ErrNotFound class error
func NotFoundf(format string, args ...any) error {
	return &ClassError{Message: fmt.Sprintf(format, args...), Class: ErrNotFound}
}

// Conflictf returns an ErrConflict class error
func Conflictf(format string, args ...any) error {
	return &ClassError{Message: fmt.Sprintf(format, args...), Class: ErrConflict}
}

// Upstream wraps a provider failure as an ErrUpstream class error
func Upstream(message string, cause error) error {
	return &ClassError{Message: message, Class: ErrUpstream, Cause: cause}
}
