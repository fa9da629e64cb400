package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/bulletin/internal/api"
	"github.com/dmitrijs2005/bulletin/internal/client/client"
	"github.com/dmitrijs2005/bulletin/internal/common"
)

// getSimpleText and getPassword point to the interactive input helpers and
// can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// report prints a user-facing explanation of err and returns it.
func (a *App) report(action string, err error) error {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		a.printf("%s failed, please check your input:\n", action)
		for _, v := range verr.Violations {
			a.printf("  %s: %s\n", v.Field, v.Description)
		}
	case errors.Is(err, client.ErrConflict):
		a.printf("%s failed: user name or email is already taken\n", action)
	case errors.Is(err, client.ErrUnauthorized):
		a.printf("%s failed: not authorized\n", action)
	case errors.Is(err, client.ErrNotSignedIn):
		a.printf("%s failed: you are not logged in\n", action)
	case errors.Is(err, client.ErrUnavailable):
		a.printf("%s failed: server unavailable\n", action)
	default:
		a.printf("%s failed: %v\n", action, err)
	}
	return err
}

// Register prompts for the account fields and creates the account. On
// success the new session is stored and the user is logged in.
func (a *App) Register(ctx context.Context) error {
	req := &api.RegisterRequest{}
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Enter user name", &req.Username},
		{"Enter first name", &req.FirstName},
		{"Enter last name", &req.LastName},
		{"Enter email", &req.Email},
	}
	for _, f := range fields {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.client.Register(ctx, req); err != nil {
		return a.report("Registration", err)
	}

	a.printf("Success! Logged in as %s\n", a.client.UserName())
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.client.Login(ctx, userName, string(password)); err != nil {
		return a.report("Login", err)
	}

	a.printf("Login successful\n")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.client.Refresh(ctx); err != nil {
		return a.report("Refresh", err)
	}
	a.printf("Session refreshed\n")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	me, err := a.client.WhoAmI(ctx)
	if err != nil {
		return a.report("WhoAmI", err)
	}
	a.printf("id: %s\nuser name: %s\nrole: %s\nadministrator: %t\n", me.UserID, me.Username, me.Role, me.IsAdministrator)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	ok, err := a.client.Logout(ctx)
	if err != nil {
		return a.report("Logout", err)
	}
	if ok {
		a.printf("Logged out\n")
	} else {
		a.printf("Session was already closed\n")
	}
	return nil
}

func (a *App) LogoutAll(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	n, err := a.client.LogoutAll(ctx)
	if err != nil {
		return a.report("Logout", err)
	}
	a.printf("Logged out, %d session(s) closed\n", n)
	return nil
}
