package storage

import (
	"github.com/google/uuid"

	"herms/internal/model"
)

type kind int

const (
	kindUser kind = iota
	kindProfile
	kindProject
	kindMember
	kindTask
	kindComment
	kindTemplate
	kindDocument
	kindActivity
)

type deleteRule int

const (
	cascade deleteRule = iota
	setNull
)

// relation is a foreign key from child records to a parent record. MemStore
// walks every relation whose parent is being deleted, the same way the
// database applies ON DELETE rules.
type relation struct {
	child  kind
	parent kind
	rule   deleteRule
	// refs returns the ids of child records pointing at parentID.
	refs func(s *MemStore, parentID uuid.UUID) []uuid.UUID
	// clear drops the reference held by a child; only used by setNull.
	clear func(s *MemStore, childID uuid.UUID)
}

// relations mirrors the foreign keys declared on the model types. Adding an
// entity means adding its rows here, not writing a new cascade.
var relations = []relation{
	required(kindProject, kindProfile, projectsOf, func(p model.Project) uuid.UUID { return p.OwnerID }),
	required(kindMember, kindProject, membersOf, func(m model.ProjectMember) uuid.UUID { return m.ProjectID }),
	required(kindMember, kindProfile, membersOf, func(m model.ProjectMember) uuid.UUID { return m.UserID }),
	required(kindTask, kindProject, tasksOf, func(t model.Task) uuid.UUID { return t.ProjectID }),
	required(kindTask, kindProfile, tasksOf, func(t model.Task) uuid.UUID { return t.CreatedBy }),
	optional(kindTask, kindProfile, setNull, tasksOf, func(t *model.Task) **uuid.UUID { return &t.AssigneeID }),
	required(kindComment, kindTask, commentsOf, func(c model.TaskComment) uuid.UUID { return c.TaskID }),
	required(kindComment, kindProfile, commentsOf, func(c model.TaskComment) uuid.UUID { return c.UserID }),
	optional(kindTemplate, kindProfile, cascade, templatesOf, func(t *model.DocumentTemplate) **uuid.UUID { return &t.CreatedBy }),
	required(kindDocument, kindProject, documentsOf, func(d model.Document) uuid.UUID { return d.ProjectID }),
	required(kindDocument, kindProfile, documentsOf, func(d model.Document) uuid.UUID { return d.CreatedBy }),
	optional(kindDocument, kindTemplate, setNull, documentsOf, func(d *model.Document) **uuid.UUID { return &d.TemplateID }),
	required(kindActivity, kindProject, activityOf, func(a model.ActivityLog) uuid.UUID { return a.ProjectID }),
	required(kindActivity, kindProfile, activityOf, func(a model.ActivityLog) uuid.UUID { return a.UserID }),
}

// required describes a NOT NULL foreign key, which always cascades.
func required[T any](child, parent kind, table func(*MemStore) map[uuid.UUID]T, ref func(T) uuid.UUID) relation {
	return relation{
		child:  child,
		parent: parent,
		rule:   cascade,
		refs: func(s *MemStore, parentID uuid.UUID) []uuid.UUID {
			var ids []uuid.UUID
			for id, rec := range table(s) {
				if ref(rec) == parentID {
					ids = append(ids, id)
				}
			}
			return ids
		},
	}
}

// optional describes a nullable foreign key.
func optional[T any](child, parent kind, rule deleteRule, table func(*MemStore) map[uuid.UUID]T, ref func(*T) **uuid.UUID) relation {
	return relation{
		child:  child,
		parent: parent,
		rule:   rule,
		refs: func(s *MemStore, parentID uuid.UUID) []uuid.UUID {
			var ids []uuid.UUID
			for id, rec := range table(s) {
				if p := *ref(&rec); p != nil && *p == parentID {
					ids = append(ids, id)
				}
			}
			return ids
		},
		clear: func(s *MemStore, childID uuid.UUID) {
			m := table(s)
			rec, ok := m[childID]
			if !ok {
				return
			}
			*ref(&rec) = nil
			m[childID] = rec
		},
	}
}

// remove deletes a record and applies every relation pointing at it.
func (s *MemStore) remove(k kind, id uuid.UUID) bool {
	if !s.drop(k, id) {
		return false
	}
	for _, rel := range relations {
		if rel.parent != k {
			continue
		}
		for _, childID := range rel.refs(s, id) {
			switch rel.rule {
			case cascade:
				s.remove(rel.child, childID)
			case setNull:
				rel.clear(s, childID)
			}
		}
	}
	return true
}

func (s *MemStore) drop(k kind, id uuid.UUID) bool {
	switch k {
	case kindUser:
		return dropFrom(s.users, id)
	case kindProfile:
		return dropFrom(s.profiles, id)
	case kindProject:
		return dropFrom(s.projects, id)
	case kindMember:
		return dropFrom(s.members, id)
	case kindTask:
		return dropFrom(s.tasks, id)
	case kindComment:
		return dropFrom(s.comments, id)
	case kindTemplate:
		return dropFrom(s.templates, id)
	case kindDocument:
		return dropFrom(s.documents, id)
	case kindActivity:
		return dropFrom(s.activity, id)
	}
	return false
}

func (s *MemStore) exists(k kind, id uuid.UUID) bool {
	switch k {
	case kindUser:
		return has(s.users, id)
	case kindProfile:
		return has(s.profiles, id)
	case kindProject:
		return has(s.projects, id)
	case kindMember:
		return has(s.members, id)
	case kindTask:
		return has(s.tasks, id)
	case kindComment:
		return has(s.comments, id)
	case kindTemplate:
		return has(s.templates, id)
	case kindDocument:
		return has(s.documents, id)
	case kindActivity:
		return has(s.activity, id)
	}
	return false
}

func dropFrom[T any](m map[uuid.UUID]T, id uuid.UUID) bool {
	if _, ok := m[id]; !ok {
		return false
	}
	delete(m, id)
	return true
}

func has[T any](m map[uuid.UUID]T, id uuid.UUID) bool {
	_, ok := m[id]
	return ok
}

func projectsOf(s *MemStore) map[uuid.UUID]model.Project { return s.projects }
func membersOf(s *MemStore) map[uuid.UUID]model.ProjectMember { return s.members }
func tasksOf(s *MemStore) map[uuid.UUID]model.Task { return s.tasks }
func commentsOf(s *MemStore) map[uuid.UUID]model.TaskComment { return s.comments }
func templatesOf(s *MemStore) map[uuid.UUID]model.DocumentTemplate { return s.templates }
func documentsOf(s *MemStore) map[uuid.UUID]model.Document { return s.documents }
func activityOf(s *MemStore) map[uuid.UUID]model.ActivityLog { return s.activity }
