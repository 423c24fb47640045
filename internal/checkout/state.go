package checkout

// State is the position of one checkout attempt in the submission workflow.
type State int

const (
	StateIdle State = iota
	StateVerifying
	StateCreatingOrder
	StateUpdatingStock
	StateCompleted
	StateVerifyFailed
	StateCreateFailed
	StateStockFailedRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateVerifying:
		return "VERIFYING"
	case StateCreatingOrder:
		return "CREATING_ORDER"
	case StateUpdatingStock:
		return "UPDATING_STOCK"
	case StateCompleted:
		return "COMPLETED"
	case StateVerifyFailed:
		return "VERIFY_FAILED"
	case StateCreateFailed:
		return "CREATE_FAILED"
	case StateStockFailedRolledBack:
		return "STOCK_FAILED_ROLLED_BACK"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the attempt has finished, successfully or not.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateVerifyFailed, StateCreateFailed, StateStockFailedRolledBack:
		return true
	default:
		return false
	}
}

// Category classifies a failed attempt for the user.
type Category int

const (
	CategoryNone Category = iota
	CategoryValidation
	CategoryAuth
	CategoryStock
	CategoryCreate
	CategoryRolledBack
	CategoryTransport
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryValidation:
		return "validation"
	case CategoryAuth:
		return "auth"
	case CategoryStock:
		return "stock"
	case CategoryCreate:
		return "create"
	case CategoryRolledBack:
		return "rolled_back"
	case CategoryTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Retryable reports whether submitting the same cart again may succeed.
func (c Category) Retryable() bool {
	return c == CategoryCreate || c == CategoryTransport || c == CategoryRolledBack
}
