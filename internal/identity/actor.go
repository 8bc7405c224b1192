package identity

import "context"

type Role string

const (
	RoleConsumer Role = "consumer"
	RoleProducer Role = "producer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleConsumer, RoleProducer, RoleAdmin:
		return true
	}
	return false
}

// Actor is the caller of a core operation. It is always passed explicitly.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func Consumer(id string) Actor { return Actor{ID: id, Role: RoleConsumer} }
func Producer(id string) Actor { return Actor{ID: id, Role: RoleProducer} }
func Admin(id string) Actor    { return Actor{ID: id, Role: RoleAdmin} }

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext is only meant for the HTTP edge; core services take the Actor as an argument.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
