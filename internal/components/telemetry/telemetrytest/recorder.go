// Package telemetrytest provides a telemetry.API that remembers what was reported.
package telemetrytest

import (
	"strings"
	"sync"
)

type Kind int

const (
	KindBroken Kind = iota
	KindWarning
	KindInfo
	KindSuccess
	KindDebug
	KindCount
)

type Report struct {
	Kind   Kind
	ID     string
	Params []any
}

// Recorder implements telemetry.API and is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func (r *Recorder) add(kind Kind, id string, params []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, ID: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any)  { r.add(KindBroken, id, params) }
func (r *Recorder) ReportWarning(id string, params ...any) { r.add(KindWarning, id, params) }
func (r *Recorder) ReportInfo(msg string, params ...any)   { r.add(KindInfo, msg, params) }
func (r *Recorder) ReportSuccess(msg string, params ...any) {
	r.add(KindSuccess, msg, params)
}
func (r *Recorder) ReportDebug(msg string, params ...any) { r.add(KindDebug, msg, params) }
func (r *Recorder) ReportCount(id string, count int64)    { r.add(KindCount, id, []any{count}) }

func (r *Recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Report{}, r.reports...)
}

// Has reports whether any report of kind has an id containing substr.
func (r *Recorder) Has(kind Kind, substr string) bool {
	for _, rep := range r.Reports() {
		if rep.Kind == kind && strings.Contains(rep.ID, substr) {
			return true
		}
	}
	return false
}
