package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"habitualize/backend"
	"habitualize/backend/table"
	"habitualize/internal/utils"
)

// points accepts both 5 and "5", as the web form posts either.
type points int

func (p *points) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("points must be an integer: %w", err)
	}
	*p = points(n)
	return nil
}

type nameRequest struct {
	Name string `json:"name"`
}

type toggleRequest struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
}

type addHabitRequest struct {
	Name   string `json:"name"`
	Points points `json:"points"`
}

type updateHabitRequest struct {
	OldName   string `json:"old_name"`
	NewName   string `json:"new_name"`
	NewPoints points `json:"new_points"`
}

type archiveRequest struct {
	Name     string `json:"name"`
	Archived *bool  `json:"archived"`
}

type addGoalRequest struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Deadline string `json:"deadline"`
	Points   points `json:"points"`
}

type updateGoalRequest struct {
	OldName     string `json:"old_name"`
	NewName     string `json:"new_name"`
	NewStatus   string `json:"new_status"`
	NewDeadline string `json:"new_deadline"`
	NewPoints   points `json:"new_points"`
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func success(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// fail maps store errors to status codes. kind names the entity in
// duplicate-name messages.
func fail(c *gin.Context, kind string, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var decodeErr *table.DecodeError
	switch {
	case errors.Is(err, backend.ErrNameRequired):
		status, message = http.StatusBadRequest, "Name required"
	case errors.Is(err, backend.ErrDuplicateName):
		status, message = http.StatusBadRequest, kind+" already exists"
	case errors.Is(err, backend.ErrInvalidDate), errors.Is(err, backend.ErrInvalidPoints):
		status = http.StatusBadRequest
	case errors.Is(err, backend.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &decodeErr):
		utils.Errorf("corrupt table: %v", err)
	default:
		utils.Errorf("%s request failed: %v", strings.ToLower(kind), err)
	}
	c.JSON(status, gin.H{"error": message})
}

func (s *Server) dailyOverview(c *gin.Context) {
	overview, err := s.stats.DailyOverview(c.Request.Context())
	if err != nil {
		fail(c, "Habit", err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (s *Server) addHabit(c *gin.Context) {
	var req addHabitRequest
	if !bind(c, &req) {
		return
	}
	if _, err := s.store.AddHabit(c.Request.Context(), req.Name, int(req.Points)); err != nil {
		fail(c, "Habit", err)
		return
	}
	success(c)
}

func (s *Server) allHabits(c *gin.Context) {
	ctx := c.Request.Context()
	active, archived := false, true
	activeHabits, err := s.store.ListHabits(ctx, &active)
	if err != nil {
		fail(c, "Habit", err)
		return
	}
	archivedHabits, err := s.store.ListHabits(ctx, &archived)
	if err != nil {
		fail(c, "Habit", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": activeHabits, "archived": archivedHabits})
}

func (s *Server) habitStreak(c *gin.Context) {
	streak, err := s.stats.WeeklyStreak(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, "Habit", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streak": streak})
}

func (s *Server) toggleHabit(c *gin.Context) {
	var req toggleRequest
	if !bind(c, &req) {
		return
	}
	if err := s.store.ToggleCompletion(c.Request.Context(), req.Name, req.Completed, ""); err != nil {
		fail(c, "Habit", err)
		return
	}
	success(c)
}

func (s *Server) updateHabit(c *gin.Context) {
	var req updateHabitRequest
	if !bind(c, &req) {
		return
	}
	if err := s.store.UpdateHabit(c.Request.Context(), req.OldName, req.NewName, int(req.NewPoints)); err != nil {
		fail(c, "Habit name", err)
		return
	}
	success(c)
}

func (s *Server) archiveHabit(c *gin.Context) {
	var req archiveRequest
	if !bind(c, &req) {
		return
	}
	archived := true
	if req.Archived != nil {
		archived = *req.Archived
	}
	if err := s.store.SetHabitArchived(c.Request.Context(), req.Name, archived); err != nil {
		fail(c, "Habit", err)
		return
	}
	success(c)
}

func (s *Server) deleteHabit(c *gin.Context) {
	var req nameRequest
	if !bind(c, &req) {
		return
	}
	if err := s.store.DeleteHabit(c.Request.Context(), req.Name); err != nil {
		fail(c, "Habit", err)
		return
	}
	success(c)
}

func (s *Server) listGoals(c *gin.Context) {
	report, err := s.stats.Goals(c.Request.Context())
	if err != nil {
		fail(c, "Goal", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) addGoal(c *gin.Context) {
	var req addGoalRequest
	if !bind(c, &req) {
		return
	}
	status := backend.GoalStatus(req.Status)
	if status == "" {
		status = backend.GoalNotStarted
	}
	goal := backend.Goal{Name: req.Name, Status: status, Deadline: req.Deadline, Points: int(req.Points)}
	if _, err := s.store.AddGoal(c.Request.Context(), goal); err != nil {
		fail(c, "Goal", err)
		return
	}
	success(c)
}

func (s *Server) updateGoal(c *gin.Context) {
	var req updateGoalRequest
	if !bind(c, &req) {
		return
	}
	goal := backend.Goal{
		Name:     req.NewName,
		Status:   backend.GoalStatus(req.NewStatus),
		Deadline: req.NewDeadline,
		Points:   int(req.NewPoints),
	}
	if err := s.store.UpdateGoal(c.Request.Context(), req.OldName, goal); err != nil {
		fail(c, "Goal name", err)
		return
	}
	success(c)
}

func (s *Server) deleteGoal(c *gin.Context) {
	var req nameRequest
	if !bind(c, &req) {
		return
	}
	if err := s.store.DeleteGoal(c.Request.Context(), req.Name); err != nil {
		fail(c, "Goal", err)
		return
	}
	success(c)
}

func (s *Server) progressForDate(c *gin.Context) {
	progress, err := s.stats.ProgressForDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		fail(c, "Habit", err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (s *Server) toggleProgress(c *gin.Context) {
	var req toggleRequest
	if !bind(c, &req) {
		return
	}
	if err := s.stats.ToggleProgress(c.Request.Context(), req.Name, req.Completed, req.Date); err != nil {
		fail(c, "Habit", err)
		return
	}
	success(c)
}
