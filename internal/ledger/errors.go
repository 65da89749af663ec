package ledger

import "errors"

// Validation errors: rejected before any state change, recoverable by retrying
// with corrected input.
var (
	ErrZeroAddress         = errors.New("account or asset must not be empty")
	ErrZeroQuantity        = errors.New("quantity must be greater than zero")
	ErrInvalidDistribution = errors.New("invalid prize distribution")
	ErrInvalidFee          = errors.New("fee percentage exceeds the 10% cap")
)

// State-precondition errors: the call is rejected with no partial effects and
// the caller must re-check raffle state.
var (
	ErrRaffleNotFound         = errors.New("raffle not found")
	ErrRaffleNotActive        = errors.New("raffle is not active")
	ErrRaffleNotEnded         = errors.New("raffle has not ended yet")
	ErrRaffleAlreadyFinalized = errors.New("raffle already finalized")
	ErrRaffleNotFinalized     = errors.New("raffle is not finalized")
	ErrRaffleIsNull           = errors.New("raffle was declared null")
	ErrInsufficientTickets    = errors.New("insufficient tickets available")
	ErrTicketNotOwned         = errors.New("ticket is not owned by caller")
	ErrTicketAlreadyRefunded  = errors.New("ticket already refunded")
	ErrAlreadyClaimed         = errors.New("prize already claimed")
	ErrRaffleNotNull          = errors.New("raffle was not declared null")
	ErrPoolIndexOutOfRange    = errors.New("pool index out of range")
	ErrUnknownRequest         = errors.New("unknown randomness request")
	ErrNotOwner               = errors.New("caller is not the ledger owner")
	ErrOperationInProgress    = errors.New("another operation is in progress for this raffle")
)

// Arithmetic-safety errors: unreachable given external bounds on quantities,
// but checked defensively. Signals an internal-invariant violation.
var ErrArithmeticOverflow = errors.New("arithmetic overflow")
