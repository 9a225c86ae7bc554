package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/BY1502/ai-interview-service/pkg/model"
)

// Auth is the resolved (or pending) identity of a client.
type Auth struct {
	Resolved bool
	Identity *model.Identity
}

func (a Auth) SignedIn() bool {
	return a.Resolved && a.Identity != nil
}

type GuardDecision int

const (
	// GuardWait means the identity probe is still outstanding; render the
	// loading placeholder.
	GuardWait GuardDecision = iota
	GuardRedirect
	GuardAllow
)

// Guard decides what a protected route renders for a.
func Guard(a Auth) GuardDecision {
	switch {
	case !a.Resolved:
		return GuardWait
	case a.Identity == nil:
		return GuardRedirect
	default:
		return GuardAllow
	}
}

type Gate struct {
	backend Backend
}

func NewGate(b Backend) *Gate {
	return &Gate{backend: b}
}

// Probe issues one identity call. Every failure, HTTP or network, resolves to
// signed out.
func (g *Gate) Probe(ctx context.Context) Auth {
	me, err := g.backend.Me(ctx)
	if err != nil {
		return Auth{Resolved: true}
	}
	return Auth{Resolved: true, Identity: me}
}

// Login signs in and re-probes the identity. Success always navigates home.
func (g *Gate) Login(ctx context.Context, creds model.Credentials) (Auth, Transition, error) {
	creds, err := normalizeCredentials(creds)
	if err != nil {
		return Auth{Resolved: true}, Transition{}, err
	}
	if err := g.backend.Login(ctx, creds); err != nil {
		return Auth{Resolved: true}, Transition{}, fmt.Errorf("login: %w", err)
	}
	return g.Probe(ctx), Transition{Redirect: PathHome}, nil
}

// Signup registers and re-probes the identity, then navigates home. Backends
// that do not sign the new user in leave the identity empty and the home
// route's gate forwards to the login screen.
func (g *Gate) Signup(ctx context.Context, creds model.Credentials) (Auth, Transition, error) {
	creds, err := normalizeCredentials(creds)
	if err != nil {
		return Auth{Resolved: true}, Transition{}, err
	}
	if err := g.backend.Signup(ctx, creds); err != nil {
		return Auth{Resolved: true}, Transition{}, fmt.Errorf("signup: %w", err)
	}
	return g.Probe(ctx), Transition{Redirect: PathHome}, nil
}

// Logout fires the sign-out call and ignores its outcome: the client ends up
// signed out and on the login screen regardless.
func (g *Gate) Logout(ctx context.Context) (Auth, Transition, error) {
	err := g.backend.Logout(ctx)
	return Auth{Resolved: true}, Transition{Redirect: PathLogin}, err
}

func normalizeCredentials(creds model.Credentials) (model.Credentials, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	verr := &ValidationError{}
	if creds.Email == "" {
		verr.add("email", "required")
	}
	if creds.Password == "" {
		verr.add("password", "required")
	}
	return creds, verr.orNil()
}
