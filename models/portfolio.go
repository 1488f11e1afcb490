package models

// Ref is an opaque handle to a document in the store. It is only meaningful
// to the store that issued it and must be resolved through a lookup call,
// never held as an in-memory pointer to the document.
type Ref string

// User owns exactly one portfolio, reachable only through this reference.
// Email is the sole lookup key.
type User struct {
	Email     string `json:"email"`
	Portfolio Ref    `json:"portfolio"`
}

// Portfolio holds references to the stocks a user has added. The list is
// append-only; insertion order is preserved for display.
type Portfolio struct {
	Stocks []Ref `json:"stocks"`
}
