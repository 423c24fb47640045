package fakebackend

import (
	"sync"
	"time"
)

// Op names a backend capability for fault injection and call counting.
type Op string

const (
	OpLogin        Op = "login"
	OpRegister     Op = "register"
	OpGetProduct   Op = "get_product"
	OpListProducts Op = "list_products"
	OpSetStock     Op = "set_stock"
	OpAdjustStock  Op = "adjust_stock"
	OpCreateOrder  Op = "create_order"
	OpListOrders   Op = "list_orders"
	OpOrderDetails Op = "order_details"
	OpCancelOrder  Op = "cancel_order"
	OpDeliverOrder Op = "deliver_order"
	OpBill         Op = "bill"
	OpReviews      Op = "reviews"
	OpClients      Op = "clients"
	OpAddresses    Op = "addresses"
	OpCategories   Op = "categories"
)

// Fault makes the next Times calls of an operation answer Status with
// Detail, after sleeping Delay.
type Fault struct {
	Status int
	Detail string
	Delay  time.Duration
	Times  int
}

type faults struct {
	mu      sync.Mutex
	pending map[Op][]Fault
	calls   map[Op]int
}

func newFaults() *faults {
	return &faults{
		pending: make(map[Op][]Fault),
		calls:   make(map[Op]int),
	}
}

func (f *faults) inject(op Op, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if fault.Times <= 0 {
		fault.Times = 1
	}
	f.pending[op] = append(f.pending[op], fault)
}

// next counts a call to op and returns the fault to apply, if any.
func (f *faults) next(op Op) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[op]++
	queue := f.pending[op]
	if len(queue) == 0 {
		return Fault{}, false
	}

	fault := queue[0]
	queue[0].Times--
	if queue[0].Times == 0 {
		f.pending[op] = queue[1:]
	}
	return fault, true
}

func (f *faults) count(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

func (f *faults) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = make(map[Op][]Fault)
	f.calls = make(map[Op]int)
}
