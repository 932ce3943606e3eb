package domain

// ReadmeSections holds the parts of a product README shown on the detail
// page. It is derived on every read and never stored.
type ReadmeSections struct {
	Description string
	Setup       string
	Demo        string
}

// IsEmpty reports whether no section has content.
func (r ReadmeSections) IsEmpty() bool {
	return r.Description == "" && r.Setup == "" && r.Demo == ""
}
