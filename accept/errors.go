// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package accept implements the inbound event acceptance pipeline:
// length caps, cryptographic validation, delegation-window and scope
// checks, and room authorization. It is a pure decision
// function; callers persist accepted events themselves.
package accept

// Code categorizes why an inbound event was rejected. unknown_kind
// and orphan are informational, not rejections; callers that want to
// track them do so outside Accept's return value (orphan detection is
// the DAG's MissingParents, and unknown_kind is never itself rejected).
type Code string

const (
	CodeEncodingInvalid        Code = "encoding_invalid"
	CodeIDMismatch             Code = "id_mismatch"
	CodeSignatureInvalid       Code = "signature_invalid"
	CodeDelegationWindow       Code = "delegation_window"
	CodeDelegationScopeMissing Code = "delegation_scope_missing"
	CodeInviteInvalid          Code = "invite_invalid"
	CodeInviteExpired          Code = "invite_expired"
	CodePoWInsufficient        Code = "pow_insufficient"
	CodeNotAMember             Code = "not_a_member"
	CodeBanned                 Code = "banned"
	CodeLimitsExceeded         Code = "limits_exceeded"
)

// Error is a categorized acceptance rejection: a Code plus the
// underlying cause.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func reject(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}
