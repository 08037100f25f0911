// Package ir provides the shared record types for the module economy.
//
// This package contains type definitions and the canonical encoding used for
// content-addressed identity. All other internal packages import ir; ir imports
// nothing internal, so it stays the foundational layer with no cycles.
//
// Key design constraints:
//   - NO float types in canonical values - quantities and percentages are int64
//   - Setup state is a closed three-valued enum, never a nullable bool
//   - All JSON tags use snake_case
//   - Timestamps are stored as UTC, truncated to microseconds at the store boundary
package ir
