package reconcile

import "fmt"

// Kind identifies one of the mirrored record collections.
type Kind string

const (
	KindPurchases Kind = "purchases"
	KindWages     Kind = "wages"
	KindOutputs   Kind = "outputs"
	KindClients   Kind = "clients"
)

// Outcome reports where a write ended up.
type Outcome int

const (
	// Synced means the record store accepted the write.
	Synced Outcome = iota
	// SavedLocally means only memory and the cache hold the write.
	SavedLocally
)

func (o Outcome) String() string {
	if o == Synced {
		return "synced"
	}
	return "saved locally"
}

// Op names the write that produced a Result.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

var localMessages = map[Op]string{
	OpCreate: "Saved locally (server unavailable)",
	OpUpdate: "Updated locally (server unavailable)",
	OpDelete: "Deleted locally (server unavailable)",
}

var syncedVerbs = map[Op]string{
	OpCreate: "recorded",
	OpUpdate: "updated",
	OpDelete: "deleted",
}

// Result describes a completed two-phase write. Err holds the absorbed
// transport failure, if any.
type Result struct {
	Kind    Kind
	Op      Op
	ID      string
	Outcome Outcome
	Err     error
}

// Message is the operator-facing summary of r.
func (r Result) Message() string {
	if r.Outcome == SavedLocally {
		return localMessages[r.Op]
	}
	return fmt.Sprintf("%s %s successfully", r.Kind.label(), syncedVerbs[r.Op])
}

func (k Kind) label() string {
	switch k {
	case KindPurchases:
		return "Coconut input"
	case KindWages:
		return "Labour wage"
	case KindOutputs:
		return "Output product"
	case KindClients:
		return "Client"
	}
	return string(k)
}

// Source reports where Load found its data.
type Source int

const (
	FromRemote Source = iota
	FromCache
)

func (s Source) String() string {
	if s == FromRemote {
		return "server"
	}
	return "local cache"
}
