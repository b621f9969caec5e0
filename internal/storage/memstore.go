package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"herms/internal/model"
)

// MemStore keeps every entity in process memory. It is used when no database
// is configured and applies the same defaults, foreign keys and cascades as
// the relational schema.
type MemStore struct {
	mu    sync.RWMutex
	clock *Clock

	users     map[uuid.UUID]model.User
	profiles  map[uuid.UUID]model.Profile
	projects  map[uuid.UUID]model.Project
	members   map[uuid.UUID]model.ProjectMember
	tasks     map[uuid.UUID]model.Task
	comments  map[uuid.UUID]model.TaskComment
	templates map[uuid.UUID]model.DocumentTemplate
	documents map[uuid.UUID]model.Document
	activity  map[uuid.UUID]model.ActivityLog
}

var _ Storage = (*MemStore)(nil)

func NewMemStore(clock *Clock) *MemStore {
	if clock == nil {
		clock = NewClock()
	}
	return &MemStore{
		clock:     clock,
		users:     make(map[uuid.UUID]model.User),
		profiles:  make(map[uuid.UUID]model.Profile),
		projects:  make(map[uuid.UUID]model.Project),
		members:   make(map[uuid.UUID]model.ProjectMember),
		tasks:     make(map[uuid.UUID]model.Task),
		comments:  make(map[uuid.UUID]model.TaskComment),
		templates: make(map[uuid.UUID]model.DocumentTemplate),
		documents: make(map[uuid.UUID]model.Document),
		activity:  make(map[uuid.UUID]model.ActivityLog),
	}
}

// Legacy users

func (s *MemStore) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	return &u, nil
}

func (s *MemStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %w", ErrNotFound)
}

func (s *MemStore) CreateUser(ctx context.Context, in model.InsertUser) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == in.Username {
			return nil, fmt.Errorf("%w: username already taken", ErrConstraintViolation)
		}
	}
	u := model.User{ID: uuid.New(), Username: in.Username, Password: in.Password}
	s.users[u.ID] = u
	return &u, nil
}

// Profiles

func (s *MemStore) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %w", ErrNotFound)
	}
	p = p.Clone()
	return &p, nil
}

func (s *MemStore) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.profileByEmail(email); ok {
		p = p.Clone()
		return &p, nil
	}
	return nil, fmt.Errorf("profile %w", ErrNotFound)
}

func (s *MemStore) CreateProfile(ctx context.Context, in model.InsertProfile) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.profileByEmail(in.Email); taken {
		return nil, fmt.Errorf("%w: email already in use", ErrConstraintViolation)
	}
	p := in.Profile(s.clock.Now())
	p.ID = uuid.New()
	s.profiles[p.ID] = p
	p = p.Clone()
	return &p, nil
}

func (s *MemStore) UpdateProfile(ctx context.Context, id uuid.UUID, patch model.ProfilePatch) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %w", ErrNotFound)
	}
	if patch.Email != nil {
		if other, taken := s.profileByEmail(*patch.Email); taken && other.ID != id {
			return nil, fmt.Errorf("%w: email already in use", ErrConstraintViolation)
		}
	}
	patch.Apply(&p)
	p.UpdatedAt = s.clock.After(p.UpdatedAt)
	s.profiles[id] = p
	p = p.Clone()
	return &p, nil
}

func (s *MemStore) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(kindProfile, id)
	return nil
}

func (s *MemStore) profileByEmail(email string) (model.Profile, bool) {
	email = strings.ToLower(email)
	for _, p := range s.profiles {
		if p.Email == email {
			return p, true
		}
	}
	return model.Profile{}, false
}

// Projects

func (s *MemStore) ListProjects(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memberOf := make(map[uuid.UUID]bool)
	for _, m := range s.members {
		if m.UserID == userID {
			memberOf[m.ProjectID] = true
		}
	}

	projects := []model.Project{}
	for _, p := range s.projects {
		if p.OwnerID == userID || memberOf[p.ID] {
			projects = append(projects, p)
		}
	}
	slices.SortFunc(projects, func(a, b model.Project) int {
		return newestFirst(a.LastActivity, b.LastActivity, a.ID, b.ID)
	})
	return projects, nil
}

func (s *MemStore) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %w", ErrNotFound)
	}
	return &p, nil
}

func (s *MemStore) CreateProject(ctx context.Context, in model.InsertProject) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(kindProfile, in.OwnerID) {
		return nil, fmt.Errorf("%w: owner does not exist", ErrConstraintViolation)
	}
	p := in.Project(s.clock.Now())
	p.ID = uuid.New()
	s.projects[p.ID] = p
	return &p, nil
}

func (s *MemStore) UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %w", ErrNotFound)
	}
	patch.Apply(&p)
	p.UpdatedAt = s.clock.After(p.UpdatedAt)
	s.projects[id] = p
	return &p, nil
}

func (s *MemStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(kindProject, id)
	return nil
}

// touchProject records activity on a project's children.
func (s *MemStore) touchProject(id uuid.UUID, at time.Time) {
	p, ok := s.projects[id]
	if !ok {
		return
	}
	if at.After(p.LastActivity) {
		p.LastActivity = at
	}
	s.projects[id] = p
}

// Members

func (s *MemStore) ListProjectMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := []model.ProjectMember{}
	for _, m := range s.members {
		if m.ProjectID == projectID {
			members = append(members, m)
		}
	}
	slices.SortFunc(members, func(a, b model.ProjectMember) int {
		return -newestFirst(a.JoinedAt, b.JoinedAt, a.ID, b.ID)
	})
	return members, nil
}

func (s *MemStore) AddProjectMember(ctx context.Context, in model.InsertProjectMember) (*model.ProjectMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(kindProject, in.ProjectID) || !s.exists(kindProfile, in.UserID) {
		return nil, fmt.Errorf("%w: project or user does not exist", ErrConstraintViolation)
	}
	for _, m := range s.members {
		if m.ProjectID == in.ProjectID && m.UserID == in.UserID {
			return nil, fmt.Errorf("%w: user is already a member", ErrConstraintViolation)
		}
	}
	m := in.ProjectMember(s.clock.Now())
	m.ID = uuid.New()
	s.members[m.ID] = m
	return &m, nil
}

func (s *MemStore) RemoveProjectMember(ctx context.Context, projectID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, m := range s.members {
		if m.ProjectID == projectID && m.UserID == userID {
			s.remove(kindMember, id)
		}
	}
	return nil
}

// Tasks

func (s *MemStore) ListTasks(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := []model.Task{}
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			tasks = append(tasks, t.Clone())
		}
	}
	slices.SortFunc(tasks, func(a, b model.Task) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return tasks, nil
}

func (s *MemStore) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %w", ErrNotFound)
	}
	t = t.Clone()
	return &t, nil
}

func (s *MemStore) CreateTask(ctx context.Context, in model.InsertTask) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(kindProject, in.ProjectID) || !s.exists(kindProfile, in.CreatedBy) {
		return nil, fmt.Errorf("%w: project or creator does not exist", ErrConstraintViolation)
	}
	if in.AssigneeID != nil && !s.exists(kindProfile, *in.AssigneeID) {
		return nil, fmt.Errorf("%w: assignee does not exist", ErrConstraintViolation)
	}
	t := in.Task(s.clock.Now())
	t.ID = uuid.New()
	s.tasks[t.ID] = t
	s.touchProject(t.ProjectID, t.CreatedAt)
	t = t.Clone()
	return &t, nil
}

func (s *MemStore) UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %w", ErrNotFound)
	}
	if patch.AssigneeID.Value != nil && !s.exists(kindProfile, *patch.AssigneeID.Value) {
		return nil, fmt.Errorf("%w: assignee does not exist", ErrConstraintViolation)
	}
	patch.Apply(&t)
	t.UpdatedAt = s.clock.After(t.UpdatedAt)
	s.tasks[id] = t
	s.touchProject(t.ProjectID, t.UpdatedAt)
	t = t.Clone()
	return &t, nil
}

func (s *MemStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil
	}
	s.remove(kindTask, id)
	s.touchProject(t.ProjectID, s.clock.Now())
	return nil
}

// Comments

func (s *MemStore) ListTaskComments(ctx context.Context, taskID uuid.UUID) ([]model.TaskComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := []model.TaskComment{}
	for _, c := range s.comments {
		if c.TaskID == taskID {
			comments = append(comments, c)
		}
	}
	slices.SortFunc(comments, func(a, b model.TaskComment) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return comments, nil
}

func (s *MemStore) GetTaskComment(ctx context.Context, id uuid.UUID) (*model.TaskComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %w", ErrNotFound)
	}
	return &c, nil
}

func (s *MemStore) CreateTaskComment(ctx context.Context, in model.InsertTaskComment) (*model.TaskComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[in.TaskID]
	if !ok || !s.exists(kindProfile, in.UserID) {
		return nil, fmt.Errorf("%w: task or author does not exist", ErrConstraintViolation)
	}
	c := in.TaskComment(s.clock.Now())
	c.ID = uuid.New()
	s.comments[c.ID] = c
	s.touchProject(task.ProjectID, c.CreatedAt)
	return &c, nil
}

func (s *MemStore) UpdateTaskComment(ctx context.Context, id uuid.UUID, patch model.TaskCommentPatch) (*model.TaskComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %w", ErrNotFound)
	}
	patch.Apply(&c)
	c.UpdatedAt = s.clock.After(c.UpdatedAt)
	s.comments[id] = c
	if task, ok := s.tasks[c.TaskID]; ok {
		s.touchProject(task.ProjectID, c.UpdatedAt)
	}
	return &c, nil
}

func (s *MemStore) DeleteTaskComment(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil
	}
	s.remove(kindComment, id)
	if task, ok := s.tasks[c.TaskID]; ok {
		s.touchProject(task.ProjectID, s.clock.Now())
	}
	return nil
}

// Documents

func (s *MemStore) ListDocuments(ctx context.Context, projectID uuid.UUID) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []model.Document{}
	for _, d := range s.documents {
		if d.ProjectID == projectID {
			docs = append(docs, d.Clone())
		}
	}
	slices.SortFunc(docs, func(a, b model.Document) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return docs, nil
}

func (s *MemStore) GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %w", ErrNotFound)
	}
	d = d.Clone()
	return &d, nil
}

func (s *MemStore) CreateDocument(ctx context.Context, in model.InsertDocument) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(kindProject, in.ProjectID) || !s.exists(kindProfile, in.CreatedBy) {
		return nil, fmt.Errorf("%w: project or creator does not exist", ErrConstraintViolation)
	}
	if in.TemplateID != nil && !s.exists(kindTemplate, *in.TemplateID) {
		return nil, fmt.Errorf("%w: template does not exist", ErrConstraintViolation)
	}
	d := in.Document(s.clock.Now())
	d.ID = uuid.New()
	s.documents[d.ID] = d
	s.touchProject(d.ProjectID, d.CreatedAt)
	d = d.Clone()
	return &d, nil
}

func (s *MemStore) UpdateDocument(ctx context.Context, id uuid.UUID, patch model.DocumentPatch) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %w", ErrNotFound)
	}
	if patch.TemplateID.Value != nil && !s.exists(kindTemplate, *patch.TemplateID.Value) {
		return nil, fmt.Errorf("%w: template does not exist", ErrConstraintViolation)
	}
	patch.Apply(&d)
	d.UpdatedAt = s.clock.After(d.UpdatedAt)
	s.documents[id] = d
	s.touchProject(d.ProjectID, d.UpdatedAt)
	d = d.Clone()
	return &d, nil
}

func (s *MemStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[id]
	if !ok {
		return nil
	}
	s.remove(kindDocument, id)
	s.touchProject(d.ProjectID, s.clock.Now())
	return nil
}

// Templates

func (s *MemStore) ListDocumentTemplates(ctx context.Context) ([]model.DocumentTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	templates := make([]model.DocumentTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		templates = append(templates, t.Clone())
	}
	slices.SortFunc(templates, func(a, b model.DocumentTemplate) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return templates, nil
}

func (s *MemStore) GetDocumentTemplate(ctx context.Context, id uuid.UUID) (*model.DocumentTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("document template %w", ErrNotFound)
	}
	t = t.Clone()
	return &t, nil
}

func (s *MemStore) CreateDocumentTemplate(ctx context.Context, in model.InsertDocumentTemplate) (*model.DocumentTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.CreatedBy != nil && !s.exists(kindProfile, *in.CreatedBy) {
		return nil, fmt.Errorf("%w: creator does not exist", ErrConstraintViolation)
	}
	t := in.DocumentTemplate(s.clock.Now())
	t.ID = uuid.New()
	s.templates[t.ID] = t
	t = t.Clone()
	return &t, nil
}

func (s *MemStore) UpdateDocumentTemplate(ctx context.Context, id uuid.UUID, patch model.DocumentTemplatePatch) (*model.DocumentTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("document template %w", ErrNotFound)
	}
	patch.Apply(&t)
	t.UpdatedAt = s.clock.After(t.UpdatedAt)
	s.templates[id] = t
	t = t.Clone()
	return &t, nil
}

func (s *MemStore) DeleteDocumentTemplate(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(kindTemplate, id)
	return nil
}

// Activity

func (s *MemStore) ListActivity(ctx context.Context, projectID uuid.UUID) ([]model.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []model.ActivityLog{}
	for _, a := range s.activity {
		if a.ProjectID == projectID {
			entries = append(entries, a.Clone())
		}
	}
	slices.SortFunc(entries, func(a, b model.ActivityLog) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return entries, nil
}

func (s *MemStore) LogActivity(ctx context.Context, in model.InsertActivityLog) (*model.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(kindProject, in.ProjectID) || !s.exists(kindProfile, in.UserID) {
		return nil, fmt.Errorf("%w: project or user does not exist", ErrConstraintViolation)
	}
	a := in.ActivityLog(s.clock.Now())
	a.ID = uuid.New()
	s.activity[a.ID] = a
	a = a.Clone()
	return &a, nil
}

// newestFirst orders by timestamp descending, then by id for a stable result.
func newestFirst(a, b time.Time, aID, bID uuid.UUID) int {
	if c := b.Compare(a); c != 0 {
		return c
	}
	return cmp.Compare(aID.String(), bID.String())
}
