// Package enforcer declares the data model for HTTP rule enforcement: an
// Enforcer bound to a RuleSet, and a TransferFilterService that will buffer
// TCP segments for inspection before they're forwarded. Neither is wired
// into the forwarding path yet; rule matching and segment buffering are a
// future milestone.
package enforcer

import "github.com/carlosrabelo/tcpforward/internal/binding"

// Enforcer pairs an active flag with the rule set it would enforce once
// wired into the forwarding path.
type Enforcer struct {
	Active bool
	Rules  binding.RuleSet
}

// TransferFilterService holds pending TCP segments awaiting inspection,
// sized for future segment-level buffering ahead of enforcement.
type TransferFilterService struct {
	PendingSegments [][]byte
}
