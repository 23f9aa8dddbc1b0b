package booking

import (
	"github.com/google/uuid"
)

type ContextKind string

const (
	ContextCourse  ContextKind = "course"
	ContextService ContextKind = "service"
)

// Context is the tagged union of the two booking origins. A booking is made
// either against a teacher's course or against a standalone service, never
// both and never neither.
type Context struct {
	kind ContextKind
	id   uuid.UUID
}

func NewCourseContext(courseID uuid.UUID) (Context, error) {
	if courseID == uuid.Nil {
		return Context{}, ErrInvalidContext
	}
	return Context{kind: ContextCourse, id: courseID}, nil
}

func NewServiceContext(serviceID uuid.UUID) (Context, error) {
	if serviceID == uuid.Nil {
		return Context{}, ErrInvalidContext
	}
	return Context{kind: ContextService, id: serviceID}, nil
}

func ReconstructContext(kind ContextKind, id uuid.UUID) Context {
	return Context{kind: kind, id: id}
}

func (c Context) Kind() ContextKind { return c.kind }
func (c Context) ID() uuid.UUID     { return c.id }

func (c Context) IsCourse() bool  { return c.kind == ContextCourse }
func (c Context) IsService() bool { return c.kind == ContextService }
