package boot

// MaxFixups is the capacity of a Table.
const MaxFixups = 8

// Table holds code addresses taken before relocation. While the image still
// runs from its load address, PC relative address computations yield load
// addresses, which stop being valid once the load address is reused.
// Resolve translates them to link addresses exactly once.
type Table struct {
	addrs    [MaxFixups]uintptr
	n        int
	resolved bool
}

// Add registers addr and returns its index. It panics if the table is full
// or already resolved.
func (t *Table) Add(addr uintptr) int {
	if t.n == MaxFixups || t.resolved {
		panic("boot: cannot add fixup")
	}
	t.addrs[t.n] = addr
	t.n++
	return t.n - 1
}

// Resolve moves every registered address that lies in p.Source() by
// p.Offset(). Addresses outside are already link addresses. Calls after the
// first have no effect.
func (t *Table) Resolve(p Plan) {
	if t.resolved {
		return
	}
	src := p.Source()
	for i := range t.n {
		if src.Contains(t.addrs[i]) {
			t.addrs[i] += p.Offset()
		}
	}
	t.resolved = true
}

// Resolved reports whether Resolve was called.
func (t *Table) Resolved() bool {
	return t.resolved
}

// Addr returns the address at index i.
func (t *Table) Addr(i int) uintptr {
	return t.addrs[i]
}

// Len returns the number of registered addresses.
func (t *Table) Len() int {
	return t.n
}
