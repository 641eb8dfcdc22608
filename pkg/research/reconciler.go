// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package research

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// =============================================================================
// View
// =============================================================================

// View is an immutable snapshot of a research session, safe to render at any
// instant. At most one of (streaming, Complete, Err != "") holds.
type View struct {
	SessionID   string
	CurrentStep Step
	StepDetail  string
	Activity    []ActivityEntry
	ReportText  string
	Complete    bool
	Err         string
}

// =============================================================================
// Reconciler
// =============================================================================

// Options configures a Reconciler.
//
// # Assumptions
//
//	OpenProgress and OpenReport may be nil, in which case that stream is not
//	opened and frames arrive only via HandleProgressFrame /
//	HandleReportFrame. The CLI always provides both openers.
type Options struct {
	// OpenProgress opens the pipeline progress SSE stream.
	OpenProgress StreamOpener

	// OpenReport opens the report text SSE stream. It is opened lazily when
	// the session reaches the report step, or immediately on a terminal
	// status that defers completion to the report stream.
	OpenReport StreamOpener

	// OnUpdate is invoked with a fresh View after every observable state
	// change. Called without internal locks held; the callback may call
	// Snapshot or Detach.
	OnUpdate func(View)

	// OnWarning receives recoverable transport-level failures (stream open
	// errors, mid-stream disconnects). These never set the error state.
	OnWarning func(error)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Reconciler merges the progress and report streams of one research session
// into a single monotonic view. All frame handling is serialized by one
// dispatch mutex; the two streams may interleave arbitrarily.
type Reconciler struct {
	mu   sync.Mutex
	opts Options
	log  *slog.Logger

	sessionID string
	attached  bool
	attachCtx context.Context

	// gen invalidates in-flight stream deliveries across Detach/re-Attach.
	gen uint64

	step       Step
	stepDetail string
	activity   *ActivityLog
	report     *ReportAccumulator
	errored    bool
	errText    string
	complete   bool

	progressSub *subscription
	reportSub   *subscription
}

// NewReconciler builds a reconciler in the detached state.
func NewReconciler(opts Options) *Reconciler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		opts:     opts,
		log:      log,
		activity: NewActivityLog(),
		report:   &ReportAccumulator{},
	}
}

// Attach binds the reconciler to a session and opens the progress
// subscription. Attaching to the already-attached session id is a no-op;
// attaching to a different id tears down and starts fresh.
func (r *Reconciler) Attach(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("attach: empty session id")
	}

	r.mu.Lock()
	if r.attached && r.sessionID == sessionID {
		r.mu.Unlock()
		return nil
	}

	r.teardownSubsLocked()
	r.resetLocked(sessionID)
	r.attached = true
	r.attachCtx = ctx
	r.gen++
	gen := r.gen

	if r.opts.OpenProgress != nil {
		r.progressSub = startSubscription(ctx, "progress", sessionID, r.opts.OpenProgress,
			func(payload string) { r.dispatchProgress(gen, payload) },
			func(err error) { r.streamEnded(gen, "progress", err) },
		)
	}
	view := r.viewLocked()
	r.mu.Unlock()

	r.log.Debug("reconciler attached", "session_id", sessionID)
	r.notify(view)
	return nil
}

// Detach cancels both subscriptions and stops all further effects. Safe to
// call repeatedly, and re-entrant from inside a frame handler or callback.
func (r *Reconciler) Detach() {
	r.mu.Lock()
	if !r.attached {
		r.mu.Unlock()
		return
	}
	r.teardownSubsLocked()
	r.attached = false
	r.gen++
	id := r.sessionID
	r.mu.Unlock()

	r.log.Debug("reconciler detached", "session_id", id)
}

// Snapshot returns the current view.
func (r *Reconciler) Snapshot() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

// HandleProgressFrame applies one progress stream payload. Exposed for
// embedding the reconciler without live subscriptions; ignored when
// detached.
func (r *Reconciler) HandleProgressFrame(payload string) {
	r.mu.Lock()
	r.dispatchProgressLocked(payload)
}

// HandleReportFrame applies one report stream payload; ignored when detached.
func (r *Reconciler) HandleReportFrame(payload string) {
	r.mu.Lock()
	r.dispatchReportLocked(payload)
}

// =============================================================================
// Dispatch
// =============================================================================

func (r *Reconciler) dispatchProgress(gen uint64, payload string) {
	r.mu.Lock()
	if !r.liveLocked(gen) {
		r.mu.Unlock()
		return
	}
	r.dispatchProgressLocked(payload)
}

// dispatchProgressLocked runs a progress frame under r.mu and releases it.
func (r *Reconciler) dispatchProgressLocked(payload string) {
	if !r.attached {
		r.mu.Unlock()
		return
	}
	changed := r.applyProgressLocked(payload)
	view := r.viewLocked()
	r.mu.Unlock()

	if changed {
		r.notify(view)
	}
}

func (r *Reconciler) dispatchReport(gen uint64, payload string) {
	r.mu.Lock()
	if !r.liveLocked(gen) {
		r.mu.Unlock()
		return
	}
	r.dispatchReportLocked(payload)
}

func (r *Reconciler) dispatchReportLocked(payload string) {
	if !r.attached {
		r.mu.Unlock()
		return
	}
	changed := r.applyReportLocked(payload)
	view := r.viewLocked()
	r.mu.Unlock()

	if changed {
		r.notify(view)
	}
}

// streamEnded handles a subscription's terminal callback.
func (r *Reconciler) streamEnded(gen uint64, name string, err error) {
	r.mu.Lock()
	if !r.liveLocked(gen) {
		r.mu.Unlock()
		return
	}
	settled := r.complete || r.errored
	r.mu.Unlock()

	if err != nil {
		r.warn(err)
		return
	}
	if !settled {
		r.warn(fmt.Errorf("%s stream ended before completion", name))
	}
}

// =============================================================================
// Progress frame semantics
// =============================================================================

// applyProgressLocked implements the progress frame rules: decode or degrade,
// monotonic status advancement, detail dedup under the current step, error
// transition, and terminal completion. Returns true when the view changed.
func (r *Reconciler) applyProgressLocked(payload string) bool {
	if r.errored || r.complete {
		return false
	}

	ev, err := DecodeProgressEvent([]byte(payload))
	if err != nil {
		// Degraded path: keep the raw payload as a low-confidence activity
		// line rather than dropping it.
		step := r.step
		if guess, ok := ClassifyDetail(payload); ok {
			step = guess
		}
		r.log.Debug("unparseable progress frame", "session_id", r.sessionID, "payload_len", len(payload))
		return r.activity.Add(step, payload, ConfidenceLow)
	}

	changed := false
	mapped, known := StepForStatus(ev.Status)

	if known && mapped != StepError && mapped > r.step {
		r.step = mapped
		changed = true
		if mapped == StepReport {
			r.openReportSubLocked()
		}
	}

	if detail := ev.DetailText(); detail != "" {
		if r.activity.Add(r.step, detail, ConfidenceHigh) {
			changed = true
		}
		if r.stepDetail != detail {
			r.stepDetail = detail
			changed = true
		}
	}

	if ev.Error != "" || (known && mapped == StepError) {
		msg := ev.Error
		if msg == "" {
			msg = "research pipeline reported an unspecified error"
		}
		r.failLocked(msg)
		return true
	}

	if known && mapped == StepComplete {
		if ev.Report != nil {
			// Inline final report: authoritative text, completes now.
			r.report.ReplaceFinal(ev.Report.Text())
			r.completeLocked()
		} else {
			// Bare terminal status: completion is deferred to the report
			// stream's sentinel.
			r.openReportSubLocked()
		}
		changed = true
	}

	return changed
}

// =============================================================================
// Report frame semantics
// =============================================================================

// applyReportLocked implements the report frame rules: chunk concatenation in
// arrival order, sentinel sealing, first-wins completion.
func (r *Reconciler) applyReportLocked(payload string) bool {
	if r.errored || r.complete {
		return false
	}

	frame, err := DecodeReportFrame([]byte(payload))
	if err != nil {
		r.log.Debug("unparseable report frame", "session_id", r.sessionID, "payload_len", len(payload))
		return r.activity.Add(r.step, payload, ConfidenceLow)
	}

	if frame.Done {
		r.report.Seal()
		r.completeLocked()
		return true
	}
	return r.report.Append(frame.Chunk)
}

// =============================================================================
// State transitions (locked helpers)
// =============================================================================

// completeLocked marks the session complete exactly once and tears down both
// subscriptions. Later completion signals are no-ops via the complete guard
// in the apply functions.
func (r *Reconciler) completeLocked() {
	r.complete = true
	if r.step < StepComplete {
		r.step = StepComplete
	}
	r.report.Seal()
	r.teardownSubsLocked()
	r.log.Debug("research session complete", "session_id", r.sessionID, "report_chunks", r.report.Chunks())
}

// failLocked performs the irreversible error transition.
func (r *Reconciler) failLocked(msg string) {
	r.errored = true
	r.errText = msg
	r.step = StepError
	r.stepDetail = msg
	r.activity.Add(StepError, msg, ConfidenceHigh)
	r.teardownSubsLocked()
	r.log.Debug("research session failed", "session_id", r.sessionID, "error", msg)
}

// openReportSubLocked lazily opens the report text subscription.
func (r *Reconciler) openReportSubLocked() {
	if r.reportSub != nil || r.opts.OpenReport == nil {
		return
	}
	ctx := r.attachCtx
	if ctx == nil {
		ctx = context.Background()
	}
	gen := r.gen
	r.reportSub = startSubscription(ctx, "report", r.sessionID, r.opts.OpenReport,
		func(payload string) { r.dispatchReport(gen, payload) },
		func(err error) { r.streamEnded(gen, "report", err) },
	)
}

func (r *Reconciler) teardownSubsLocked() {
	if r.progressSub != nil {
		r.progressSub.close()
		r.progressSub = nil
	}
	if r.reportSub != nil {
		r.reportSub.close()
		r.reportSub = nil
	}
}

func (r *Reconciler) resetLocked(sessionID string) {
	r.sessionID = sessionID
	r.step = StepClarification
	r.stepDetail = ""
	r.activity = NewActivityLog()
	r.report = &ReportAccumulator{}
	r.errored = false
	r.errText = ""
	r.complete = false
}

func (r *Reconciler) liveLocked(gen uint64) bool {
	return r.attached && gen == r.gen
}

func (r *Reconciler) viewLocked() View {
	return View{
		SessionID:   r.sessionID,
		CurrentStep: r.step,
		StepDetail:  r.stepDetail,
		Activity:    r.activity.Entries(),
		ReportText:  r.report.Text(),
		Complete:    r.complete,
		Err:         r.errText,
	}
}

// =============================================================================
// Callbacks
// =============================================================================

func (r *Reconciler) notify(view View) {
	if r.opts.OnUpdate != nil {
		r.opts.OnUpdate(view)
	}
}

func (r *Reconciler) warn(err error) {
	r.log.Warn("stream warning", "session_id", r.sessionID, "error", err)
	if r.opts.OnWarning != nil {
		r.opts.OnWarning(err)
	}
}
