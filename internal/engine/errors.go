package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// CodeSelfInteraction: a user tried to click their own module.
	CodeSelfInteraction ErrorCode = "SELF_INTERACTION"

	// CodeNoInteractionsRemaining: the visitor's daily allowance is spent.
	CodeNoInteractionsRemaining ErrorCode = "NO_INTERACTIONS_REMAINING"

	// CodeNotClickable: the module needs setup before visitors can click it.
	CodeNotClickable ErrorCode = "NOT_CLICKABLE"

	// CodeNotSetupable: setup or trade settings on an item without a setup concept.
	CodeNotSetupable ErrorCode = "NOT_SETUPABLE"

	// CodeInsufficientInventory: a required debit exceeds the holder's balance.
	CodeInsufficientInventory ErrorCode = "INSUFFICIENT_INVENTORY"

	// CodeEmptyFriendPool: a friend message fired but the owner has no eligible friends.
	// Logged and skipped, never returned from Click.
	CodeEmptyFriendPool ErrorCode = "EMPTY_FRIEND_POOL"

	// CodePrizeTableMisconfigured: an arcade draw selected no prize.
	CodePrizeTableMisconfigured ErrorCode = "PRIZE_TABLE_MISCONFIGURED"

	CodeModuleNotFound     ErrorCode = "MODULE_NOT_FOUND"
	CodeUnknownItem        ErrorCode = "UNKNOWN_ITEM"
	CodeUnknownUser        ErrorCode = "UNKNOWN_USER"
	CodeCellOccupied       ErrorCode = "CELL_OCCUPIED"
	CodeOutOfBounds        ErrorCode = "OUT_OF_BOUNDS"
	CodeTradeNotConfigured ErrorCode = "TRADE_NOT_CONFIGURED"
)

// Error is a domain failure raised by an engine operation. Every Error
// aborts the operation's transaction.
type Error struct {
	Code     ErrorCode
	Message  string
	ModuleID string
	UserID   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.ModuleID != "" && e.UserID != "":
		return fmt.Sprintf("%s: %s (module=%s, user=%s)", e.Code, e.Message, e.ModuleID, e.UserID)
	case e.ModuleID != "":
		return fmt.Sprintf("%s: %s (module=%s)", e.Code, e.Message, e.ModuleID)
	case e.UserID != "":
		return fmt.Sprintf("%s: %s (user=%s)", e.Code, e.Message, e.UserID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotClickable)
// works whatever the message or ids.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrSelfInteraction         = &Error{Code: CodeSelfInteraction, Message: "cannot interact with own module"}
	ErrNoInteractionsRemaining = &Error{Code: CodeNoInteractionsRemaining, Message: "no interactions remaining"}
	ErrNotClickable            = &Error{Code: CodeNotClickable, Message: "module is not clickable"}
	ErrNotSetupable            = &Error{Code: CodeNotSetupable, Message: "module has no setup requirement"}
	ErrInsufficientInventory   = &Error{Code: CodeInsufficientInventory, Message: "insufficient inventory"}
	ErrEmptyFriendPool         = &Error{Code: CodeEmptyFriendPool, Message: "owner has no eligible friends"}
	ErrPrizeTableMisconfigured = &Error{Code: CodePrizeTableMisconfigured, Message: "prize table selected nothing"}
	ErrModuleNotFound          = &Error{Code: CodeModuleNotFound, Message: "module not found"}
	ErrUnknownItem             = &Error{Code: CodeUnknownItem, Message: "item is not a module"}
	ErrUnknownUser             = &Error{Code: CodeUnknownUser, Message: "user not found"}
	ErrCellOccupied            = &Error{Code: CodeCellOccupied, Message: "grid cell is occupied"}
	ErrOutOfBounds             = &Error{Code: CodeOutOfBounds, Message: "position is off the grid"}
	ErrTradeNotConfigured      = &Error{Code: CodeTradeNotConfigured, Message: "no trade settings and no catalog default"}
)

// CodeOf returns the code of the first *Error in err's chain, or "" when
// err is nil or not an engine error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotClickable returns true if the error is a not-clickable error.
// Uses errors.As to handle wrapped errors.
func IsNotClickable(err error) bool {
	return CodeOf(err) == CodeNotClickable
}

// IsInsufficientInventory returns true if a debit failed for lack of items.
func IsInsufficientInventory(err error) bool {
	return CodeOf(err) == CodeInsufficientInventory
}

// IsNotFound returns true for missing modules and unknown users.
func IsNotFound(err error) bool {
	code := CodeOf(err)
	return code == CodeModuleNotFound || code == CodeUnknownUser
}

func newError(code ErrorCode, moduleID, userID, format string, args ...any) *Error {
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		ModuleID: moduleID,
		UserID:   userID,
	}
}
