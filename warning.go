package updatedb

// Warning is a non-fatal consistency finding about the script
// directory. Warnings never block a run; they are reported at the end
// of every run that did not abort.
type Warning struct {
	Script string // file name the warning is about
	Reason string // human-readable explanation
}

func (w Warning) String() string {
	return w.Script + ": " + w.Reason
}
