package schedule

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/armorer/blackmarket/internal/clock"
	"github.com/armorer/blackmarket/internal/geo"
	"github.com/armorer/blackmarket/internal/model"
	"github.com/armorer/blackmarket/internal/util"
)

// ErrNoMeetingLocation is returned when a meeting is scheduled without a
// location.
var ErrNoMeetingLocation = errors.New("no meeting location provided")

const (
	// arrivalLeadHours is how long before the meeting time the agent starts
	// heading to the location.
	arrivalLeadHours = 1.0

	// arrivalEpsilonHours treats a just-missed arrival window as current.
	arrivalEpsilonHours = 1e-3

	// expiryGuardHours caps the wrap-aware "hours past the meeting"
	// measurement so an upcoming meeting later in the day is not mistaken
	// for one missed almost a full day ago.
	expiryGuardHours = 12.0
)

// Movement is the narrow capability surface of the movement system.
type Movement interface {
	MoveTo(wp model.Waypoint) error
	MoveToPosition(p geo.Position) error
	OverrideMovementTemporarily(wp model.Waypoint, hold time.Duration)
}

// Hooks receive schedule and meeting transitions for audit and telemetry.
// Nil hooks are skipped.
type Hooks struct {
	StateChanged func(rec model.AgentStateRecord)
	MeetingEvent func(ev model.MeetingEvent)
}

// Config holds the per-agent schedule tunables.
type Config struct {
	Times model.ScheduleTimes

	// WaitWindowHours is how long past the meeting time the agent waits for
	// a delivery before resuming its normal day.
	WaitWindowHours float64

	// ArrivalThreshold is the distance below which the agent counts as
	// standing at the meeting location.
	ArrivalThreshold float64

	FleeDuration time.Duration
	FleeDistance float64

	// BedHold keeps movement pinned to the bed waypoint after ResetToBed.
	BedHold time.Duration
}

// Scheduler drives one agent's schedule state machine and its meeting
// override. All methods run on the single simulation timeline; the scheduler
// holds no locks.
type Scheduler struct {
	agent     *model.Agent
	cfg       Config
	clk       clock.View
	movement  Movement
	waypoints map[model.ScheduleState]model.Waypoint
	hooks     Hooks
	log       *slog.Logger

	state              model.ScheduleState
	hasMeeting         bool
	meetingLocation    *model.Waypoint
	meetingTime        float64
	arrivalTime        float64
	stateBeforeMeeting model.ScheduleState

	fleeing   bool
	fleeUntil time.Time
	now       func() time.Time
}

// NewScheduler creates a scheduler for one agent. The initial state is
// derived from the clock's current hour without emitting a transition.
func NewScheduler(agent *model.Agent, cfg Config, clk clock.View, movement Movement, waypoints map[model.ScheduleState]model.Waypoint, hooks Hooks, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		agent:     agent,
		cfg:       cfg,
		clk:       clk,
		movement:  movement,
		waypoints: waypoints,
		hooks:     hooks,
		log:       log,
		state:     DetermineState(cfg.Times, clk.CurrentHour()),
		now:       time.Now,
	}
}

// Agent returns the agent this scheduler drives.
func (s *Scheduler) Agent() *model.Agent {
	return s.agent
}

// State returns the current schedule state.
func (s *Scheduler) State() model.ScheduleState {
	return s.state
}

// Tick reconciles the agent against the current hour. Priority order: an
// active meeting window wins, then meeting expiry, then the ordinary
// schedule, which is skipped while the agent is en route to a still-pending
// meeting.
func (s *Scheduler) Tick(hour float64) {
	if s.fleeing {
		if s.now().Before(s.fleeUntil) {
			return
		}
		// Threat passed: fall through and resynchronize fully, which can
		// re-enter an interrupted meeting sequence.
		s.fleeing = false
	}

	if s.hasMeeting && s.inMeetingWindow(hour) {
		s.transitionTo(model.StateGoingToMeeting, hour)
		return
	}

	if s.hasMeeting && s.meetingExpired(hour) {
		s.completeMeeting(hour, "timeout")
		return
	}

	if s.hasMeeting && s.state == model.StateGoingToMeeting {
		// Pending meeting outside its window but the agent is already en
		// route (immediate scheduling) or waiting out the window: hold.
		return
	}

	s.applySchedule(hour)
}

// ScheduleMeeting books a meeting at the given location after a real-time
// delay. A meeting already pending is overwritten, last write wins. If the
// arrival window is already current, the agent starts moving immediately
// instead of waiting for the next tick.
func (s *Scheduler) ScheduleMeeting(location *model.Waypoint, realTimeSeconds float64) error {
	if location == nil {
		s.log.Error("meeting scheduled without location", "agent", s.agent.ID)
		return ErrNoMeetingLocation
	}

	hour := s.clk.CurrentHour()
	offset := s.clk.ConvertDuration(realTimeSeconds)

	s.meetingTime = util.WrapHour(hour + offset)
	s.arrivalTime = util.WrapHour(s.meetingTime - arrivalLeadHours)
	s.hasMeeting = true
	s.stateBeforeMeeting = s.state
	loc := *location
	s.meetingLocation = &loc

	s.emitMeeting("scheduled", hour)
	s.log.Debug("meeting scheduled",
		"agent", s.agent.ID,
		"location", loc.Name,
		"meetingTime", s.meetingTime,
		"arrivalTime", s.arrivalTime)

	if math.Abs(hour-s.arrivalTime) < arrivalEpsilonHours || s.inMeetingWindow(hour) {
		s.transitionTo(model.StateGoingToMeeting, hour)
	}

	return nil
}

// CompleteMeeting clears any pending meeting and resumes the normal
// schedule for the current hour. Safe to call when no meeting is pending.
func (s *Scheduler) CompleteMeeting() {
	s.completeMeeting(s.clk.CurrentHour(), "completed")
}

// CompleteWeaponDeal is the external success signal from settlement. It
// closes the meeting immediately, bypassing the wait-window timeout.
func (s *Scheduler) CompleteWeaponDeal() {
	s.completeMeeting(s.clk.CurrentHour(), "completed")
}

// IsAtMeetingLocation reports whether the agent is en route to a pending
// meeting and standing within the arrival threshold of its location.
func (s *Scheduler) IsAtMeetingLocation() bool {
	return s.hasMeeting &&
		s.state == model.StateGoingToMeeting &&
		s.meetingLocation != nil &&
		geo.Distance(s.agent.Position, s.meetingLocation.Position) < s.cfg.ArrivalThreshold
}

// ResetToBed cancels any pending meeting, forces the agent to Sleeping, and
// relocates it to the bed waypoint, holding movement there if configured.
func (s *Scheduler) ResetToBed() {
	hour := s.clk.CurrentHour()
	if s.hasMeeting {
		s.emitMeeting("reset", hour)
		s.hasMeeting = false
		s.meetingLocation = nil
	}
	s.fleeing = false

	from := s.state
	s.state = model.StateSleeping

	if bed, ok := s.waypoints[model.StateSleeping]; ok {
		if s.cfg.BedHold > 0 {
			s.movement.OverrideMovementTemporarily(bed, s.cfg.BedHold)
		} else {
			s.movement.MoveTo(bed) //nolint:errcheck // movement failures are the mover's concern
		}
	} else {
		s.log.Warn("no bed waypoint configured", "agent", s.agent.ID)
	}

	if from != s.state {
		s.emitState(from, hour)
	}
}

// Flee moves the agent directly away from a threat for the configured
// real-time duration. The next tick after the duration elapses re-runs the
// full reconciliation against the current hour.
func (s *Scheduler) Flee(threat geo.Position) {
	s.fleeing = true
	s.fleeUntil = s.now().Add(s.cfg.FleeDuration)
	retreat := geo.Away(s.agent.Position, threat, s.cfg.FleeDistance)
	s.movement.MoveToPosition(retreat) //nolint:errcheck
	s.log.Debug("agent fleeing", "agent", s.agent.ID, "until", s.fleeUntil)
}

// inMeetingWindow reports whether hour lies in [arrivalTime, meetingTime),
// measured forward from the arrival time so the window wraps midnight.
func (s *Scheduler) inMeetingWindow(hour float64) bool {
	sinceArrival := util.HoursSince(s.arrivalTime, hour)
	return sinceArrival < util.HoursUntil(s.arrivalTime, s.meetingTime)
}

// meetingExpired reports whether the wait window past the meeting time has
// elapsed.
func (s *Scheduler) meetingExpired(hour float64) bool {
	past := util.HoursSince(s.meetingTime, hour)
	return past >= s.cfg.WaitWindowHours && past < expiryGuardHours
}

func (s *Scheduler) completeMeeting(hour float64, kind string) {
	if s.hasMeeting {
		s.emitMeeting(kind, hour)
		s.hasMeeting = false
		s.meetingLocation = nil
	}
	s.applySchedule(hour)
}

func (s *Scheduler) applySchedule(hour float64) {
	s.transitionTo(DetermineState(s.cfg.Times, hour), hour)
}

// transitionTo moves the agent into a new state, requesting movement to the
// state's waypoint. The state updates even when no waypoint is configured;
// only the movement request is skipped.
func (s *Scheduler) transitionTo(state model.ScheduleState, hour float64) {
	if s.state == state {
		return
	}
	from := s.state
	s.state = state

	if wp, ok := s.waypointFor(state); ok {
		s.movement.MoveTo(wp) //nolint:errcheck
	} else {
		s.log.Warn("no waypoint configured for state",
			"agent", s.agent.ID, "state", state.String())
	}

	if state == model.StateGoingToMeeting {
		s.emitMeeting("enroute", hour)
	}
	s.emitState(from, hour)
}

func (s *Scheduler) waypointFor(state model.ScheduleState) (model.Waypoint, bool) {
	if state == model.StateGoingToMeeting {
		if s.meetingLocation == nil {
			return model.Waypoint{}, false
		}
		return *s.meetingLocation, true
	}
	wp, ok := s.waypoints[state]
	return wp, ok
}

func (s *Scheduler) emitState(from model.ScheduleState, hour float64) {
	if s.hooks.StateChanged == nil {
		return
	}
	s.hooks.StateChanged(model.AgentStateRecord{
		AgentID:  s.agent.ID,
		From:     from,
		To:       s.state,
		GameHour: hour,
		Day:      s.clk.Day(),
		At:       s.now(),
	})
}

func (s *Scheduler) emitMeeting(kind string, hour float64) {
	if s.hooks.MeetingEvent == nil {
		return
	}
	loc := ""
	if s.meetingLocation != nil {
		loc = s.meetingLocation.Name
	}
	s.hooks.MeetingEvent(model.MeetingEvent{
		AgentID:     s.agent.ID,
		Kind:        kind,
		MeetingTime: s.meetingTime,
		ArrivalTime: s.arrivalTime,
		Location:    loc,
		GameHour:    hour,
		At:          s.now(),
	})
}
