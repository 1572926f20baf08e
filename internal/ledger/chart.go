package ledger

import "sort"

// Chart is a flat, read-only index over a set of accounts. Parent links
// are integer ids resolved through the index, so the tree carries no
// cyclic object references.
type Chart struct {
	byID     map[int64]Account
	byCode   map[string]int64
	children map[int64][]int64
}

// NewChart builds an index from a snapshot of accounts.
func NewChart(accounts []Account) *Chart {
	c := &Chart{
		byID:     make(map[int64]Account, len(accounts)),
		byCode:   make(map[string]int64, len(accounts)),
		children: make(map[int64][]int64),
	}
	for _, a := range accounts {
		c.byID[a.ID] = a
		c.byCode[a.Code] = a.ID
		if a.ParentID != nil {
			c.children[*a.ParentID] = append(c.children[*a.ParentID], a.ID)
		}
	}
	for _, ids := range c.children {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return c
}

// Get returns the account with the given id.
func (c *Chart) Get(id int64) (Account, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// GetByCode returns the account with the given code.
func (c *Chart) GetByCode(code string) (Account, bool) {
	id, ok := c.byCode[code]
	if !ok {
		return Account{}, false
	}
	return c.byID[id], true
}

// Children returns the direct child ids of an account, ordered by id.
func (c *Chart) Children(id int64) []int64 {
	return c.children[id]
}

// IsLeaf reports whether the account has no children.
func (c *Chart) IsLeaf(id int64) bool {
	return len(c.children[id]) == 0
}

// RolledBalance sums the account's own balance with every descendant's.
func (c *Chart) RolledBalance(id int64) float64 {
	a, ok := c.byID[id]
	if !ok {
		return 0
	}
	total := a.Balance
	for _, child := range c.children[id] {
		total += c.RolledBalance(child)
	}
	return total
}
