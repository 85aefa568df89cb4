package domain

// Entity statuses are typed enumerations with explicit transition tables.
// A transition outside the table is rejected instead of overwriting the row.

type DepositStatus string

const (
	DepositPending    DepositStatus = "pending"
	DepositSuccessful DepositStatus = "successful"
	DepositFailed     DepositStatus = "failed"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderFailed     OrderStatus = "failed"
)

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
)

var depositTransitions = map[DepositStatus]map[DepositStatus]struct{}{
	DepositPending: {
		DepositSuccessful: {},
		DepositFailed:     {},
	},
	DepositSuccessful: {},
	DepositFailed:     {},
}

// failed -> pending is the administrative resubmission reset; there is no
// other path back to pending.
var orderTransitions = map[OrderStatus]map[OrderStatus]struct{}{
	OrderPending: {
		OrderProcessing: {},
		OrderCompleted:  {},
		OrderCancelled:  {},
		OrderFailed:     {},
	},
	OrderProcessing: {
		OrderCompleted: {},
		OrderCancelled: {},
		OrderFailed:    {},
	},
	OrderFailed: {
		OrderPending: {},
	},
	OrderCompleted: {},
	OrderCancelled: {},
}

var withdrawalTransitions = map[WithdrawalStatus]map[WithdrawalStatus]struct{}{
	WithdrawalPending: {
		WithdrawalApproved: {},
		WithdrawalRejected: {},
	},
	WithdrawalApproved: {
		WithdrawalCompleted: {},
		WithdrawalRejected:  {},
	},
	WithdrawalCompleted: {},
	WithdrawalRejected:  {},
}

func (s DepositStatus) CanTransition(next DepositStatus) bool {
	_, ok := depositTransitions[s][next]
	return ok
}

// Terminal reports whether the deposit can no longer change state.
func (s DepositStatus) Terminal() bool {
	return len(depositTransitions[s]) == 0
}

func (s OrderStatus) CanTransition(next OrderStatus) bool {
	_, ok := orderTransitions[s][next]
	return ok
}

func (s WithdrawalStatus) CanTransition(next WithdrawalStatus) bool {
	_, ok := withdrawalTransitions[s][next]
	return ok
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s WithdrawalStatus) Valid() bool {
	_, ok := withdrawalTransitions[s]
	return ok
}

func (s DepositStatus) Valid() bool {
	_, ok := depositTransitions[s]
	return ok
}
