package eval

import (
	"github.com/sunholo/apexpr/internal/errors"
)

// Frame is the mutable binding table of one scope.
type Frame map[string]Value

// Environment is a lexical scope chain. Lookup walks parents; writes always
// land in the local frame.
//
// Closures hold environments and environments hold closures, so environment
// graphs are cyclic. Every environment is created through an EnvMgr, whose
// ClearAllFrames severs the cycles when an interpretation finishes.
type Environment struct {
	parent *Environment
	frame  Frame
}

// Get resolves a name, walking parent scopes. A miss is a name error.
func (e *Environment) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.frame[name]; ok {
			return v, nil
		}
	}
	return nil, errors.Namef("name '%s' is not defined", name)
}

// Set binds a name in the local frame and reports whether it was previously
// unbound there. The interpreter uses the report to reject duplicate lambda
// parameters.
func (e *Environment) Set(name string, v Value) bool {
	_, present := e.frame[name]
	e.frame[name] = v
	return !present
}

func (e *Environment) clearFrame() {
	e.parent = nil
	e.frame = Frame{}
}

// EnvMgr owns every environment created during one interpretation and can
// clear them wholesale. This is the only mechanism that breaks
// closure↔environment cycles eagerly; dropping the manager without calling
// ClearAllFrames leaves reclamation to the garbage collector.
type EnvMgr struct {
	envs []*Environment
}

func NewEnvMgr() *EnvMgr { return &EnvMgr{} }

// New creates a child environment over parent.
func (m *EnvMgr) New(parent *Environment) *Environment {
	env := &Environment{parent: parent, frame: Frame{}}
	m.envs = append(m.envs, env)
	return env
}

// NewInitEnv creates a root environment seeded with frame.
func (m *EnvMgr) NewInitEnv(frame Frame) *Environment {
	if frame == nil {
		frame = Frame{}
	}
	env := &Environment{frame: frame}
	m.envs = append(m.envs, env)
	return env
}

// ClearAllFrames empties every owned frame and drops parent links.
func (m *EnvMgr) ClearAllFrames() {
	for _, env := range m.envs {
		env.clearFrame()
	}
	m.envs = nil
}
