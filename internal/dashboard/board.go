package dashboard

import (
	"sync"
	"time"

	"glassplanner/internal/model"
)

// CourseState is one sidebar entry.
type CourseState struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Board is the loaded calendar plus the course toggles. It is safe for
// concurrent use; every accessor returns copies.
type Board struct {
	mu          sync.RWMutex
	loc         *time.Location
	assignments []model.Assignment
	courses     []string
	active      map[string]bool
	loadedAt    time.Time
	source      string
}

// NewBoard creates an empty board whose "today" boundary uses loc.
func NewBoard(loc *time.Location) *Board {
	if loc == nil {
		loc = time.Local
	}
	return &Board{loc: loc, active: map[string]bool{}}
}

// Load replaces the board content and enables every course.
func (b *Board) Load(list []model.Assignment, source string) {
	courses := Courses(list)
	active := make(map[string]bool, len(courses))
	for _, c := range courses {
		active[c] = true
	}

	copied := append([]model.Assignment(nil), list...)

	b.mu.Lock()
	b.assignments = copied
	b.courses = courses
	b.active = active
	b.loadedAt = time.Now()
	b.source = source
	b.mu.Unlock()
}

// Reset clears the board.
func (b *Board) Reset() {
	b.mu.Lock()
	b.assignments = nil
	b.courses = nil
	b.active = map[string]bool{}
	b.loadedAt = time.Time{}
	b.source = ""
	b.mu.Unlock()
}

// Loaded reports whether a calendar is on the board, and where it came from.
func (b *Board) Loaded() (bool, string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.loadedAt.IsZero(), b.source
}

// Toggle flips a course and reports its new state. Unknown courses are
// ignored and report false.
func (b *Board) Toggle(course string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.known(course) {
		return false
	}
	b.active[course] = !b.active[course]
	return b.active[course]
}

// SetAll enables or disables every course.
func (b *Board) SetAll(enable bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.courses {
		b.active[c] = enable
	}
}

// Courses returns every known course with its toggle state.
func (b *Board) Courses() []CourseState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]CourseState, 0, len(b.courses))
	for _, c := range b.courses {
		out = append(out, CourseState{Name: c, Active: b.active[c]})
	}
	return out
}

// All returns every loaded assignment in start order.
func (b *Board) All() []model.Assignment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.Assignment(nil), b.assignments...)
}

// Visible returns upcoming assignments of active courses as of now.
func (b *Board) Visible(now time.Time) []model.Assignment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	f := Filter{Active: b.activeCopy(), Now: now, Location: b.loc}
	return f.Visible(b.assignments)
}

// Groups returns upcoming assignments per course, in sidebar order. Courses
// that are switched off or have nothing upcoming are still listed.
func (b *Board) Groups(now time.Time) []model.CourseGroup {
	b.mu.RLock()
	defer b.mu.RUnlock()
	upcoming := Filter{Now: now, Location: b.loc}.Visible(b.assignments)

	byCourse := make(map[string][]model.Assignment, len(b.courses))
	for _, g := range Group(upcoming, nil) {
		byCourse[g.CourseName] = g.Assignments
	}

	groups := make([]model.CourseGroup, 0, len(b.courses))
	for _, c := range b.courses {
		list := byCourse[c]
		if list == nil {
			list = []model.Assignment{}
		}
		groups = append(groups, model.CourseGroup{CourseName: c, Assignments: list, IsVisible: b.active[c]})
	}
	return groups
}

// Find looks up an assignment by ID.
func (b *Board) Find(id string) (model.Assignment, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, a := range b.assignments {
		if a.ID == id {
			return a, true
		}
	}
	return model.Assignment{}, false
}

func (b *Board) known(course string) bool {
	for _, c := range b.courses {
		if c == course {
			return true
		}
	}
	return false
}

func (b *Board) activeCopy() map[string]bool {
	m := make(map[string]bool, len(b.active))
	for k, v := range b.active {
		m[k] = v
	}
	return m
}
