/*
Copyright (C) 2023  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package scserr declares the sentinel error kinds every public SCS
// operation can surface, per the error handling design.
package scserr

import "errors"

var (
	// ErrInvalidConfig is raised when C, V, or sigma are non-positive, or
	// counts doesn't match num_elements, at construction; and when a rebuild
	// or migrate input vector is not sized to the capacity, or migrate runs
	// on a container without a global id map.
	ErrInvalidConfig = errors.New("pscs: invalid configuration")
	// ErrCountMismatch is raised when the sum of counts doesn't match the
	// declared particle total at construction.
	ErrCountMismatch = errors.New("pscs: particle count mismatch")
	// ErrUnknownGid is raised when a received global element id has no
	// local mapping during migrate.
	ErrUnknownGid = errors.New("pscs: unknown global element id")
	// ErrTransportFailure wraps any error the message transport reports.
	ErrTransportFailure = errors.New("pscs: transport failure")
	// ErrUseAfterFree is raised when a column view is used after the
	// container it was acquired from has since mutated.
	ErrUseAfterFree = errors.New("pscs: column view used after mutation")
)
