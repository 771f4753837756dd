package pgretry

import (
	"errors"
	"strings"
)

// ErrorKind identifies a class of errors.
// Matches reports whether err, or any error in its chain, belongs to the class.
type ErrorKind interface {
	Name() string
	Matches(err error) bool
}

// KindedError is implemented by errors that carry an explicit kind identifier.
type KindedError interface {
	error
	Kind() string
}

// NamedKind returns a kind matching errors whose Kind() equals name or is a
// dotted descendant of it ("pgretry.ConflictError.WriteSkew" belongs to
// "pgretry.ConflictError").
func NamedKind(name string) ErrorKind {
	return namedKind(name)
}

type namedKind string

func (k namedKind) Name() string { return string(k) }

// Matches walks the error tree depth-first, like errors.As, so joined errors
// and multiple %w operands are searched too.
func (k namedKind) Matches(err error) bool {
	if err == nil {
		return false
	}
	if ke, ok := err.(KindedError); ok {
		id := ke.Kind()
		if id == string(k) || strings.HasPrefix(id, string(k)+".") {
			return true
		}
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return k.Matches(u.Unwrap())
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if k.Matches(e) {
				return true
			}
		}
	}
	return false
}

// SentinelKind returns a kind matching errors for which errors.Is(err, target) holds.
func SentinelKind(name string, target error) ErrorKind {
	return &sentinelKind{name: name, target: target}
}

type sentinelKind struct {
	name   string
	target error
}

func (k *sentinelKind) Name() string { return k.name }

func (k *sentinelKind) Matches(err error) bool {
	return errors.Is(err, k.target)
}

// TypeKind returns a kind matching errors for which errors.As finds a T in the chain.
func TypeKind[T error](name string) ErrorKind {
	return typeKind[T](name)
}

type typeKind[T error] string

func (k typeKind[T]) Name() string { return string(k) }

func (k typeKind[T]) Matches(err error) bool {
	var target T
	return errors.As(err, &target)
}

// FuncKind returns a kind backed by an arbitrary predicate.
func FuncKind(name string, match func(error) bool) ErrorKind {
	return &funcKind{name: name, match: match}
}

type funcKind struct {
	name  string
	match func(error) bool
}

func (k *funcKind) Name() string { return k.name }

func (k *funcKind) Matches(err error) bool {
	return err != nil && k.match(err)
}

// MatchAny reports whether err belongs to any of kinds.
func MatchAny(kinds []ErrorKind, err error) bool {
	if err == nil {
		return false
	}
	for _, k := range kinds {
		if k.Matches(err) {
			return true
		}
	}
	return false
}
