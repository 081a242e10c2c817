package pbtext

// Result is the report of one top-level parse. Error text and completeness
// are independent: valid input that omits a required field yields empty
// error text with Complete == false.
type Result struct {
	Issues   Issues
	Warnings Issues
	// Complete is true when every required field at every nesting level was
	// set and no error occurred.
	Complete bool
	// OutOfMemory distinguishes allocation failure from input errors.
	OutOfMemory bool
	// Missing lists the paths of unset required fields.
	Missing []string
}

// ErrorText returns one "Line N: message" line per issue; empty iff no
// error occurred.
func (r Result) ErrorText() string { return r.Issues.Text() }

// Err returns the issues as an error, nil when there are none.
func (r Result) Err() error {
	if len(r.Issues) == 0 {
		return nil
	}
	return r.Issues
}

// OK reports a complete parse without errors.
func (r Result) OK() bool { return r.Complete && len(r.Issues) == 0 }
