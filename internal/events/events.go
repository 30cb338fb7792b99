// Package events is the shared catalogue of event bus kinds and payloads
// used across the harvester core (state machine, ETL registry, time
// keeper). Centralizing them here keeps every publisher and subscriber
// agreeing on the same wire shape, the way the teacher catalogues its
// service event reasons in one place.
package events

import "harvester/internal/eventbus"

// Broadcast event kinds.
const (
	HarvestStarted     eventbus.Kind = "HarvestStarted"
	HarvestFinished     eventbus.Kind = "HarvestFinished"
	SaveStarted         eventbus.Kind = "SaveStarted"
	SaveFinished        eventbus.Kind = "SaveFinished"
	SubmissionStarted   eventbus.Kind = "SubmissionStarted"
	SubmissionFinished  eventbus.Kind = "SubmissionFinished"
	AbortingStarted     eventbus.Kind = "AbortingStarted"
	AbortingFinished    eventbus.Kind = "AbortingFinished"
	ServiceInitialized  eventbus.Kind = "ServiceInitialized"
	DocumentsHarvested  eventbus.Kind = "DocumentsHarvested"
	ConfigChanged       eventbus.Kind = "ConfigChanged"
	StartHarvestEvent   eventbus.Kind = "StartHarvestEvent"
)

// Synchronous request kinds.
const (
	IsOutdatedRequest eventbus.RequestKind = "IsOutdatedRequest"
)

// HarvestStartedPayload accompanies HarvestStarted.
type HarvestStartedPayload struct {
	RunID            string // correlates with the matching HarvestFinished
	Hash             string
	MaxDocumentCount int // -1 means unknown
}

// HarvestFinishedPayload accompanies HarvestFinished.
type HarvestFinishedPayload struct {
	RunID   string
	Success bool
	Hash    string
}

// FinishedPayload accompanies SaveFinished and SubmissionFinished, neither
// of which carries a hash. AbortingFinished is sent without a payload.
type FinishedPayload struct {
	Success bool
}

// ServiceInitializedPayload accompanies ServiceInitialized.
type ServiceInitializedPayload struct {
	Success bool
}

// DocumentsHarvestedPayload accompanies DocumentsHarvested; it is published
// once per element a pipeline loads.
type DocumentsHarvestedPayload struct {
	Count int
}

// ConfigChangedPayload accompanies ConfigChanged.
type ConfigChangedPayload struct {
	Key string
}
