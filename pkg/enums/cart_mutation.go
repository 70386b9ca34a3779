package enums

// CartMutation names a cart operation in logs, metrics and change events.
type CartMutation string

const (
	CartMutationToggle      CartMutation = "toggle"
	CartMutationAdd         CartMutation = "add"
	CartMutationSetQuantity CartMutation = "set_quantity"
	CartMutationIncrement   CartMutation = "increment"
	CartMutationDecrement   CartMutation = "decrement"
	CartMutationRemove      CartMutation = "remove"
	CartMutationClear       CartMutation = "clear"
	CartMutationPrune       CartMutation = "prune"
	CartMutationLoad        CartMutation = "load"
	CartMutationExternal    CartMutation = "external"
)

// String implements fmt.Stringer.
func (m CartMutation) String() string {
	return string(m)
}
