// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Input Constraints

const (
	// MaxNameLength bounds first and last names.
	MaxNameLength = 100

	// genericResetMessage is returned for every reset request, known email or not.
	genericResetMessage = "If the email is registered, a reset link has been sent"

	// duplicateEmailMessage does not reveal more than the registration form already does.
	duplicateEmailMessage = "Email is already registered"
)
