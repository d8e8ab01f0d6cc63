package http

import (
	"fmt"
	"net/http"
	"strings"

	"room8/internal/core"
	"room8/internal/log"
	"room8/internal/schedule"
)

const maxTimelineDays = 366

type choreRequest struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Frequency        string  `json:"frequency"`
	EstimatedMinutes int     `json:"estimatedMinutes"`
	Priority         string  `json:"priority"`
	AssignedTo       string  `json:"assignedTo"`
	ScheduledDate    *string `json:"scheduledDate"`
}

type assignRequest struct {
	RoommateID string `json:"roommateId"`
}

type completeRequest struct {
	CompletedBy string `json:"completedBy"`
	Notes       string `json:"notes"`
}

type completeResponse struct {
	Chore      core.Chore           `json:"chore"`
	Completion core.ChoreCompletion `json:"completion"`
}

// choreInput parses the enumerations; the household validates the rest.
func (s *Server) choreInput(req choreRequest) (core.ChoreInput, error) {
	freq, err := core.ParseFrequency(req.Frequency)
	if err != nil {
		return core.ChoreInput{}, err
	}
	var prio core.Priority
	if strings.TrimSpace(req.Priority) != "" {
		if prio, err = core.ParsePriority(req.Priority); err != nil {
			return core.ChoreInput{}, err
		}
	}
	scheduled, err := optionalTimestamp("scheduledDate", req.ScheduledDate, s.household.Scheduler().Location())
	if err != nil {
		return core.ChoreInput{}, err
	}
	return core.ChoreInput{
		Name:             sanitizeInput(req.Name),
		Description:      sanitizeInput(req.Description),
		Frequency:        freq,
		EstimatedMinutes: req.EstimatedMinutes,
		Priority:         prio,
		AssignedTo:       sanitizeInput(req.AssignedTo),
		ScheduledDate:    scheduled,
	}, nil
}

// handleListChores optionally filters by ?assignee=<roommate id>.
func (s *Server) handleListChores(w http.ResponseWriter, r *http.Request) {
	if assignee := strings.TrimSpace(r.URL.Query().Get("assignee")); assignee != "" {
		NewJSONResponse().Data(nonNil(s.household.ChoresAssignedTo(assignee))).Write(w)
		return
	}
	NewJSONResponse().Data(nonNil(s.household.Chores())).Write(w)
}

func (s *Server) handleGetChore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := s.household.Chore(id)
	if !ok {
		writeError(w, r, fmt.Errorf("chore %s: %w", id, core.ErrNotFound), log.OpRead)
		return
	}
	NewJSONResponse().Data(c).Write(w)
}

func (s *Server) handleAddChore(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	in, err := s.choreInput(req)
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}

	c, err := s.household.AddChore(r.Context(), in)
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	Created(c).Write(w)
}

func (s *Server) handleUpdateChore(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}
	in, err := s.choreInput(req)
	if err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}

	c, err := s.household.UpdateChore(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Data(c).Write(w)
}

func (s *Server) handleDeleteChore(w http.ResponseWriter, r *http.Request) {
	if err := s.household.DeleteChore(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	NoContent().Write(w)
}

// handleAssignChore unassigns when roommateId is empty.
func (s *Server) handleAssignChore(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, log.OpAssign)
		return
	}

	c, err := s.household.AssignChore(r.Context(), r.PathValue("id"), sanitizeInput(req.RoommateID))
	if err != nil {
		writeError(w, r, err, log.OpAssign)
		return
	}
	NewJSONResponse().Data(c).Write(w)
}

func (s *Server) handleCompleteChore(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, log.OpComplete)
		return
	}
	if strings.TrimSpace(req.CompletedBy) == "" {
		writeError(w, r, badRequest("completedBy is required"), log.OpComplete)
		return
	}

	c, completion, err := s.household.CompleteChore(r.Context(), r.PathValue("id"),
		sanitizeInput(req.CompletedBy), sanitizeInput(req.Notes))
	if err != nil {
		writeError(w, r, err, log.OpComplete)
		return
	}
	Created(completeResponse{Chore: c, Completion: completion}).Write(w)
}

func (s *Server) handleChoreCompletions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	completions := s.household.Completions(id)
	if _, ok := s.household.Chore(id); !ok && len(completions) == 0 {
		writeError(w, r, fmt.Errorf("chore %s: %w", id, core.ErrNotFound), log.OpRead)
		return
	}
	NewJSONResponse().Data(nonNil(completions)).Write(w)
}

func (s *Server) handleOverdueChores(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(nonNil(s.household.OverdueChores())).Write(w)
}

func (s *Server) handleDueTodayChores(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(nonNil(s.household.DueTodayChores())).Write(w)
}

// handleSchedule lists the chores occurring on ?date=YYYY-MM-DD, today by
// default.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	loc := s.household.Scheduler().Location()
	date, err := ParseDateParam(r.URL.Query(), "date", s.household.Now().In(loc), loc)
	if err != nil {
		writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Data(nonNil(s.household.ChoresOn(date))).Write(w)
}

// handleTimeline covers today plus ?days=N following days.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	days, err := ParseIntParam(r.URL.Query(), "days", schedule.DefaultTimelineDays, 1, maxTimelineDays)
	if err != nil {
		writeError(w, r, err, log.OpList)
		return
	}

	sched := s.household.Scheduler()
	today := sched.StartOfDay(s.household.Now()).Format(dateLayout)
	key := s.revisionKey(today, fmt.Sprint(days))
	if timeline, ok := s.timelineCache.Get(key); ok {
		NewJSONResponse().Data(timeline).Write(w)
		return
	}

	timeline := s.household.Timeline(days)
	s.timelineCache.Set(key, timeline)
	NewJSONResponse().Data(timeline).Write(w)
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
