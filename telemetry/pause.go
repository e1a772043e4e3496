package telemetry

// PauseGate tracks whether output is suppressed and whether the record
// header must be printed before the next data record.
type PauseGate struct {
	paused     bool
	headerOwed bool
}

// NewPauseGate returns a gate in the initial session state: paused, header owed.
func NewPauseGate() PauseGate {
	return PauseGate{paused: true, headerOwed: true}
}

// Set records a pause or resume notification. Every notification owes a
// fresh header, so each unpaused run starts with one.
func (g *PauseGate) Set(paused bool) {
	g.paused = paused
	g.headerOwed = true
}

// Paused reports whether output is currently suppressed.
func (g *PauseGate) Paused() bool {
	return g.paused
}

// OweHeader requests a header before the next record.
func (g *PauseGate) OweHeader() {
	g.headerOwed = true
}

// TakeHeader reports whether a header is owed and clears the debt.
func (g *PauseGate) TakeHeader() bool {
	owed := g.headerOwed
	g.headerOwed = false
	return owed
}
