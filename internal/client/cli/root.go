package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.sess == nil {
		return ""
	}
	return fmt.Sprintf("(%s %s)", a.sess.Identity.Email, a.sess.Identity.Plan)
}

// Root runs the interactive loop. It exits on scanner EOF or when the user
// types "exit" or "quit". Command handlers report their own errors; the loop
// never aborts on one.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to DocForge CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("dfc %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Files:      add <path>..., files, remove <n>, move <from> <to>, reset")
				fmt.Println("Operations: convert <format>, merge [output], split <ranges>, protect, unlock, ocr [lang]")
				fmt.Println("Other:      history, delhist <id>, ping, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, ping, exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "ping":
			a.ping(ctx)

		case "add":
			a.requireLogin(func() { a.addFiles(args) })
		case "files", "list":
			a.requireLogin(func() { a.listFiles() })
		case "remove":
			a.requireLogin(func() { a.removeFile(args) })
		case "move":
			a.requireLogin(func() { a.moveFile(args) })
		case "reset":
			a.requireLogin(func() { a.orch.ResetFiles() })

		case "convert":
			a.requireLogin(func() { a.convert(ctx, args) })
		case "merge":
			a.requireLogin(func() { a.merge(ctx, args) })
		case "split":
			a.requireLogin(func() { a.split(ctx, args) })
		case "protect":
			a.requireLogin(func() { a.protect(ctx) })
		case "unlock":
			a.requireLogin(func() { a.unlock(ctx) })
		case "ocr":
			a.requireLogin(func() { a.ocr(ctx, args) })

		case "history":
			a.requireLogin(func() { a.listHistory(ctx) })
		case "delhist":
			a.requireLogin(func() { a.deleteHistory(ctx, args) })

		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func (a *App) requireLogin(fn func()) {
	if !a.isLoggedIn() {
		fmt.Println("Please login first")
		return
	}
	fn()
}

func (a *App) ping(ctx context.Context) {
	if err := a.api.Ping(ctx); err != nil {
		fmt.Println("Server unreachable:", err)
		return
	}
	fmt.Println("Server is up")
}
