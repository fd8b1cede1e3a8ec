package main

import (
	"context"
	"errors"
	"fmt"

	automodeler "github.com/jdziat/automodeler-go"
)

// describe turns err into the line printed to the user.
func describe(err error) string {
	var netErr *automodeler.NetworkError
	switch {
	case errors.Is(err, automodeler.ErrNotAuthenticated), errors.Is(err, automodeler.ErrUnauthorized):
		return automodeler.UserMessage(err) + " (run `automodeler login`)"
	case errors.As(err, &netErr):
		return "cannot reach the backend: " + err.Error()
	}
	return automodeler.UserMessage(err)
}

func loginCmd(ctx context.Context, a *app, args []string) error {
	var username string
	var err error
	if len(args) > 0 {
		username = args[0]
	} else if username, err = a.ui.AskRequired("Username"); err != nil {
		return err
	}
	password, err := a.ui.AskRequired("Password")
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, username, password); err != nil {
		return err
	}
	a.ui.Success(fmt.Sprintf("Logged in as %s", username))
	return nil
}

func registerCmd(ctx context.Context, a *app, _ []string) error {
	var reg automodeler.Registration
	var err error
	if reg.Fullname, err = a.ui.AskRequired("Full name"); err != nil {
		return err
	}
	if reg.Username, err = a.ui.AskRequired("Username"); err != nil {
		return err
	}
	if reg.Password, err = a.ui.AskRequired("Password"); err != nil {
		return err
	}

	resp, err := a.client.Auth().Register(ctx, &reg)
	if err != nil {
		return err
	}
	msg := "Account created"
	if resp.Message != "" {
		msg = resp.Message
	}
	a.ui.Success(msg + "; you can now log in")
	return nil
}

func logoutCmd(ctx context.Context, a *app, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.ui.Success("Logged out")
	return nil
}
