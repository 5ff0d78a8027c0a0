package cli

import (
	"context"
	"fmt"
	"os"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for credentials and creates an account. The server logs
// the user in as part of registration, so a successful call leaves the app
// with a live session.
func (a *App) Register(ctx context.Context) {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	s, err := a.api.Register(ctx, email, password)
	if err != nil {
		fmt.Println("Registration failed:", err)
		return
	}
	a.openSession(s)
	fmt.Println("Success!")
}

// Login prompts for credentials and authenticates against the server.
func (a *App) Login(ctx context.Context) {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	s, err := a.api.Login(ctx, email, password)
	if err != nil {
		fmt.Println("Login failed:", err)
		return
	}
	a.openSession(s)
	fmt.Printf("Logged in as %s (%s plan)\n", s.Identity.Email, s.Identity.Plan)
}

// Logout drops the session and releases any staged files.
func (a *App) Logout(ctx context.Context) {
	a.teardown()
	fmt.Println("Logged out")
}
