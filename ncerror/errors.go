// Copyright (c) 2017,2019, AT&T Intellectual Property. All rights reserved
//
// Copyright (c) 2016-2017 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package ncerror builds the NETCONF-shaped error values the validation
// engine returns for recoverable constraint failures: data-not-unique,
// too-few-elements, too-many-elements. Adapted from the schema package's
// error constructors to the three failure shapes this engine's callers
// (unique, minmax) actually produce.
package ncerror

import (
	"sort"
	"strings"

	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
)

// Kind distinguishes the three recoverable validation failures the
// engine can report; see the tri-state result model.
type Kind int

const (
	DataNotUnique Kind = iota
	TooFewElements
	TooManyElements
)

// Failure is a recoverable validation-constraint failure: one of the
// three kinds above, carrying enough context to build the NETCONF error
// element. It is the "invalid(error-xml)" arm of the tri-state result.
type Failure struct {
	Kind Kind
	Path []string
	Name string            // offending child name, for TooFew/TooManyElements
	Keys map[string]string // colliding key tuple, for DataNotUnique
}

func (f *Failure) Error() string {
	switch f.Kind {
	case DataNotUnique:
		return "data-not-unique: " + formatKeys(f.Keys) + " at " + pathutil.Pathstr(f.Path)
	case TooFewElements:
		return "too-few-elements: " + f.Name + " at " + pathutil.Pathstr(f.Path)
	case TooManyElements:
		return "too-many-elements: " + f.Name + " at " + pathutil.Pathstr(f.Path)
	default:
		return "unknown validation failure"
	}
}

// ToNetconfError renders the failure as the mgmterror application error
// NETCONF replies carry; the message text is shaped after RFC 7950
// §15's error-app-tag vocabulary for these three conditions.
func (f *Failure) ToNetconfError() error {
	switch f.Kind {
	case DataNotUnique:
		e := mgmterror.NewOperationFailedApplicationError()
		e.Path = pathutil.Pathstr(f.Path)
		e.AppTag = "data-not-unique"
		e.Message = "Non-unique values for unique/key constraint: " + formatKeys(f.Keys)
		return e
	case TooFewElements:
		e := mgmterror.NewOperationFailedApplicationError()
		e.Path = pathutil.Pathstr(f.Path)
		e.AppTag = "too-few-elements"
		e.Message = "Too few elements: " + f.Name
		return e
	case TooManyElements:
		e := mgmterror.NewOperationFailedApplicationError()
		e.Path = pathutil.Pathstr(f.Path)
		e.AppTag = "too-many-elements"
		e.Message = "Too many elements: " + f.Name
		return e
	default:
		e := mgmterror.NewOperationFailedApplicationError()
		e.Path = pathutil.Pathstr(f.Path)
		return e
	}
}

func NewDataNotUnique(path []string, keys map[string]string) *Failure {
	return &Failure{Kind: DataNotUnique, Path: path, Keys: keys}
}

func NewTooFewElements(path []string, name string) *Failure {
	return &Failure{Kind: TooFewElements, Path: path, Name: name}
}

func NewTooManyElements(path []string, name string) *Failure {
	return &Failure{Kind: TooManyElements, Path: path, Name: name}
}

func formatKeys(keys map[string]string) string {
	if len(keys) == 0 {
		return "{}"
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": \"")
		b.WriteString(keys[k])
		b.WriteString("\"")
	}
	b.WriteByte('}')
	return b.String()
}
