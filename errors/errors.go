/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrMalformedKey is returned when a key tuple has invalid nulls or component types
	ErrMalformedKey = errors.New("malformed composite key")

	// ErrInvalidRange is returned when range bounds violate the requested ordering
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidArgument is returned when an argument such as a ttl or a value is invalid
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnresolvedJoinEntity is returned when a referenced entity does not exist
	// and the cascade policy forbids persisting it
	ErrUnresolvedJoinEntity = errors.New("unresolved join entity")

	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrNoSuchElement is returned when an iterator is advanced past its last element
	ErrNoSuchElement = errors.New("no such element")

	// ErrConsistencyViolation is returned by a storage driver when the requested
	// consistency level cannot be satisfied
	ErrConsistencyViolation = errors.New("consistency level cannot be satisfied")
)

// MalformedKeyError reports an invalid component in a composite key tuple.
type MalformedKeyError struct {
	Property  string
	Component int
	Message   string
}

func (e *MalformedKeyError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("malformed key for property %q at component %d: %s", e.Property, e.Component, e.Message)
	}
	return fmt.Sprintf("malformed key at component %d: %s", e.Component, e.Message)
}

func (e *MalformedKeyError) Is(target error) bool {
	return target == ErrMalformedKey
}

// InvalidRangeError represents start/end bounds ordered against the query direction
type InvalidRangeError struct {
	Property string
	Reversed bool
}

func (e *InvalidRangeError) Error() string {
	if e.Reversed {
		return fmt.Sprintf("invalid range for property %q: start must be greater than or equal to end for reversed queries", e.Property)
	}
	return fmt.Sprintf("invalid range for property %q: start must be less than or equal to end", e.Property)
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// InvalidArgumentError represents an input validation error
type InvalidArgumentError struct {
	Argument string
	Message  string
}

func (e *InvalidArgumentError) Error() string {
	if e.Argument != "" {
		return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Message)
	}
	return fmt.Sprintf("invalid argument: %s", e.Message)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// UnresolvedJoinEntityError represents a join reference to an entity that was never persisted
type UnresolvedJoinEntityError struct {
	Type string
	ID   any
}

func (e *UnresolvedJoinEntityError) Error() string {
	return fmt.Sprintf("join entity %s with id '%v' does not exist and cascade persist is disabled", e.Type, e.ID)
}

func (e *UnresolvedJoinEntityError) Is(target error) bool {
	return target == ErrUnresolvedJoinEntity
}

// EntityNotFoundError represents an error when an entity is not found.
// Property names the owning property when the lookup resolved a join.
type EntityNotFoundError struct {
	Type     string
	Key      string
	Property string
	Err      error
}

func (e *EntityNotFoundError) Error() string {
	msg := fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
	if e.Property != "" {
		msg = fmt.Sprintf("%s (join property %q)", msg, e.Property)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *EntityNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *EntityNotFoundError) Unwrap() error {
	return e.Err
}

// NoSuchElementError is returned when an iterator has no more elements
type NoSuchElementError struct {
	Property string
}

func (e *NoSuchElementError) Error() string {
	return fmt.Sprintf("no more elements in iterator over property %q", e.Property)
}

func (e *NoSuchElementError) Is(target error) bool {
	return target == ErrNoSuchElement
}

// ConsistencyViolationError is raised by storage drivers when a level cannot be met
type ConsistencyViolationError struct {
	Operation string
	Level     string
	Message   string
}

func (e *ConsistencyViolationError) Error() string {
	return fmt.Sprintf("%s at consistency level %s failed: %s", e.Operation, e.Level, e.Message)
}

func (e *ConsistencyViolationError) Is(target error) bool {
	return target == ErrConsistencyViolation
}

// Helper functions for creating errors

// NewMalformedKeyError creates a new MalformedKeyError
func NewMalformedKeyError(property string, component int, message string) error {
	return &MalformedKeyError{Property: property, Component: component, Message: message}
}

// NewInvalidRangeError creates a new InvalidRangeError
func NewInvalidRangeError(property string, reversed bool) error {
	return &InvalidRangeError{Property: property, Reversed: reversed}
}

// NewInvalidArgumentError creates a new InvalidArgumentError
func NewInvalidArgumentError(argument, message string) error {
	return &InvalidArgumentError{Argument: argument, Message: message}
}

// NewUnresolvedJoinEntityError creates a new UnresolvedJoinEntityError
func NewUnresolvedJoinEntityError(entityType string, id any) error {
	return &UnresolvedJoinEntityError{Type: entityType, ID: id}
}

// NewNotFoundError creates a new EntityNotFoundError
func NewNotFoundError(entityType, key string) error {
	return &EntityNotFoundError{Type: entityType, Key: key}
}

// NewJoinNotFoundError creates an EntityNotFoundError chained with the owning property
func NewJoinNotFoundError(entityType, key, property string, cause error) error {
	return &EntityNotFoundError{Type: entityType, Key: key, Property: property, Err: cause}
}

// NewNoSuchElementError creates a new NoSuchElementError
func NewNoSuchElementError(property string) error {
	return &NoSuchElementError{Property: property}
}

// NewConsistencyViolationError creates a new ConsistencyViolationError
func NewConsistencyViolationError(operation, level, message string) error {
	return &ConsistencyViolationError{Operation: operation, Level: level, Message: message}
}

// IsMalformedKey checks if an error is a malformed key error
func IsMalformedKey(err error) bool {
	return errors.Is(err, ErrMalformedKey)
}

// IsInvalidRange checks if an error is an invalid range error
func IsInvalidRange(err error) bool {
	return errors.Is(err, ErrInvalidRange)
}

// IsInvalidArgument checks if an error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsUnresolvedJoinEntity checks if an error is an unresolved join entity error
func IsUnresolvedJoinEntity(err error) bool {
	return errors.Is(err, ErrUnresolvedJoinEntity)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNoSuchElement checks if an error is a no such element error
func IsNoSuchElement(err error) bool {
	return errors.Is(err, ErrNoSuchElement)
}

// IsConsistencyViolation checks if an error is a consistency violation
func IsConsistencyViolation(err error) bool {
	return errors.Is(err, ErrConsistencyViolation)
}
