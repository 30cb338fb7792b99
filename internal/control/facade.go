// Package control implements the Control Facade (spec.md §4.9): it
// translates external commands into state-machine calls and back into
// structured responses. No business logic lives here — only selecting the
// current state object, invoking the matching method, and shaping the
// reply.
package control

import (
	"fmt"

	"harvester/internal/statemachine"
)

// Registry is the read-only subset of *etl.Registry the facade's query
// endpoints need; kept as an interface so this package does not import
// internal/etl.
type Registry interface {
	MaxDocumentCount() int
	HarvestedDocuments() (int, error)
}

// Facade is the thin command/response translator internal/restserver
// drives.
type Facade struct {
	machine      *statemachine.Machine
	registry     Registry
	dataProvider string
}

// New constructs a Facade over an already-running Machine.
func New(machine *statemachine.Machine, registry Registry, dataProvider string) *Facade {
	return &Facade{machine: machine, registry: registry, dataProvider: dataProvider}
}

// Result is what every Facade operation returns: an HTTP status and a
// plain-text body, matching the table in spec.md §6.
type Result struct {
	Status int
	Body   string
}

func outcomeToResult(resp statemachine.Response, acceptedBody string) Result {
	switch resp.Outcome {
	case statemachine.Accepted, statemachine.AcceptedWithWarning, statemachine.AcceptedAfterInit:
		body := acceptedBody
		if resp.Message != "" {
			body = acceptedBody + ": " + resp.Message
		}
		return Result{Status: 202, Body: body}
	case statemachine.BadRequest:
		return Result{Status: 400, Body: resp.Message}
	case statemachine.Busy:
		return Result{Status: 503, Body: resp.Message}
	case statemachine.Fubar:
		return Result{Status: 500, Body: resp.Message}
	default:
		return Result{Status: 500, Body: "unknown outcome"}
	}
}

// StartHarvest implements POST /.
func (f *Facade) StartHarvest() Result { return outcomeToResult(f.machine.StartHarvest(), "harvest started") }

// Abort implements POST /abort.
func (f *Facade) Abort() Result { return outcomeToResult(f.machine.Abort(), "aborting") }

// Save implements GET /download (starts the save operation).
func (f *Facade) Save() Result { return outcomeToResult(f.machine.Save(), "save started") }

// Submit implements POST /submit.
func (f *Facade) Submit() Result { return outcomeToResult(f.machine.Submit(), "submit started") }

// Reset implements POST /reset.
func (f *Facade) Reset() Result { return outcomeToResult(f.machine.Reset(), "reset accepted") }

// State implements GET /state.
func (f *Facade) State() Result {
	return Result{Status: 200, Body: string(f.machine.Current())}
}

// IsOutdated implements GET /outdated.
func (f *Facade) IsOutdated() Result {
	resp := f.machine.IsOutdated()
	switch resp.Outcome {
	case statemachine.Busy:
		return Result{Status: 503, Body: "init-in-progress"}
	case statemachine.Fubar:
		return Result{Status: 500, Body: resp.Message}
	default:
		outdated, _ := resp.Data.(bool)
		if outdated {
			return Result{Status: 200, Body: "true"}
		}
		return Result{Status: 200, Body: "false"}
	}
}

// Overview implements GET /.
func (f *Facade) Overview() Result {
	body := fmt.Sprintf("data-provider: %s\nstate: %s\n", f.dataProvider, f.machine.Current())
	return Result{Status: 200, Body: body}
}

// Progress implements GET /progress: "a/b" when the total is known, or
// "N/A" when the registry reports an unknown document count.
func (f *Facade) Progress() Result {
	harvested, err := f.registry.HarvestedDocuments()
	if err != nil {
		return Result{Status: 400, Body: err.Error()}
	}
	max := f.registry.MaxDocumentCount()
	if max < 0 {
		return Result{Status: 200, Body: "N/A"}
	}
	return Result{Status: 200, Body: fmt.Sprintf("%d/%d", harvested, max)}
}

// MaxDocuments implements GET /max-documents.
func (f *Facade) MaxDocuments() Result {
	max := f.registry.MaxDocumentCount()
	if max < 0 {
		return Result{Status: 200, Body: "N/A"}
	}
	return Result{Status: 200, Body: fmt.Sprintf("%d", max)}
}

// HarvestedDocuments implements GET /harvested-documents.
func (f *Facade) HarvestedDocuments() Result {
	harvested, err := f.registry.HarvestedDocuments()
	if err != nil {
		return Result{Status: 500, Body: err.Error()}
	}
	return Result{Status: 200, Body: fmt.Sprintf("%d", harvested)}
}

// DataProvider implements GET /data-provider.
func (f *Facade) DataProvider() Result {
	return Result{Status: 200, Body: f.dataProvider}
}
