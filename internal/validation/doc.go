// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance with user-friendly error messages,
// integrated with the module's mperr boundary error type. It backs the
// option-struct precondition checks for query requests: region enum
// membership, Engage's mutually-exclusive parameters, and date-range
// ordering — all checked before any request reaches the network.
//
// # Quick Start
//
//	type EngageOptions struct {
//	    Region      string   `validate:"required,oneof=us eu in"`
//	    DistinctID  string   `validate:"omitempty,excluded_with=DistinctIDs"`
//	    DistinctIDs []string `validate:"omitempty,excluded_with=DistinctID,max=2000"`
//	}
//
//	if verr := validation.ValidateStruct(&opts); verr != nil {
//	    return verr.ToMPErr()
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: Field must not be empty
//   - oneof=a b c: Must be one of the specified values (used for region)
//
// Numeric validations:
//   - gte=n / lte=n / gt=n / lt=n: Bounds (batch size 100-100000, etc.)
//
// Cross-field validations:
//   - excluded_with=Other: Mutually exclusive fields (Engage's
//     distinct_id/distinct_ids, behaviors/cohort_id)
//   - gtfield=Other: Ordering (to_date after from_date)
//
// # Error Types
//
// ValidationError represents a single field validation failure.
// RequestValidationError aggregates multiple field errors and converts to
// *mperr.Error via ToMPErr, using mperr.CodeInvalidArgument.
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use.
package validation
