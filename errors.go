/*
 * errors.go, part of gocmiles.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
package chem

import (
	"errors"
	"fmt"
	"strings"
)

//Sentinel errors. Functions in this package wrap them with %w, so they
//can be checked with errors.Is.
var (
	ErrSanitize       = errors.New("could not sanitize molecule")
	ErrUnknownElement = errors.New("unknown element")
	ErrBondOrder      = errors.New("invalid bond order")
	ErrGeometryLength = errors.New("geometry length does not match the number of atoms")
	ErrUnknownFormat  = errors.New("unknown file format")
	ErrNoConformer    = errors.New("molecule has no conformers")
	ErrZeroCoords     = errors.New("all coordinates are zero")
	ErrParse          = errors.New("could not parse molecule")
	ErrSchema         = errors.New("invalid molecule schema")
)

//Error is the interface for errors that carry the chain of functions they passed through.
type Error interface {
	Error() string
	Decorate(string) []string
}

//CError is the error type for parsing problems in gocmiles. It keeps the
//functions it has been passed through, and the sentinel error it belongs to, if any.
type CError struct {
	msg  string
	deco []string
	err  error
}

//Error returns the message of the error, followed by the function chain.
func (err CError) Error() string {
	if len(err.deco) == 0 {
		return err.msg
	}
	return fmt.Sprintf("%s (%s)", err.msg, strings.Join(err.deco, " < "))
}

//Decorate adds dec to the decoration slice of the error and returns the result.
//Giving it an empty string just returns the current slice.
func (err *CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Unwrap returns the sentinel error wrapped by err.
func (err CError) Unwrap() error {
	return err.err
}

//newCError returns a CError wrapping the sentinel kind, decorated with the function caller.
func newCError(kind error, caller, format string, args ...any) *CError {
	msg := fmt.Sprintf(format, args...)
	if kind != nil {
		msg = kind.Error() + ": " + msg
	}
	e := &CError{msg: msg, err: kind}
	e.Decorate(caller)
	return e
}

//errDecorate decorates err with caller if err is a gocmiles Error, and returns it.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var e *CError
	if errors.As(err, &e) {
		e.Decorate(caller)
		return e
	}
	return err
}
