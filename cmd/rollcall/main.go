// Command rollcall runs the attendance server and a couple of small
// operator subcommands for staff account management.
//
// Usage:
//
//	rollcall [serve]
//	rollcall create-user -username NAME -email ADDR
//	rollcall change-password -username NAME
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"rollcall/cmd/identity"
	"rollcall/cmd/internal/app"
	"rollcall/cmd/security/password"
)

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "serve":
		if err := app.Run(); err != nil {
			log.Fatal(err)
		}
	case "create-user":
		if err := runCreateUser(args); err != nil {
			log.Fatal(err)
		}
	case "change-password":
		if err := runChangePassword(args); err != nil {
			log.Fatal(err)
		}
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
}

func usage(w *os.File) {
	fmt.Fprintln(w, "usage: rollcall [serve|create-user|change-password]")
}

func runCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "login name for the new staff user")
	email := fs.String("email", "", "email address for the new staff user")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		return errors.New("create-user: -username and -email are required")
	}

	plain, err := promptPassword(true)
	if err != nil {
		return err
	}
	hash, err := password.DefaultConfig().Hash(plain)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, pool, err := openUserStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	u, err := store.Create(ctx, identity.CreateUserInput{
		Username:     *username,
		Email:        *email,
		PasswordHash: hash,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, identity.ErrConflict) {
			return fmt.Errorf("create-user: username or email already taken")
		}
		return err
	}

	fmt.Printf("created user %q (id %d)\n", u.Username, u.ID)
	return nil
}

func runChangePassword(args []string) error {
	fs := flag.NewFlagSet("change-password", flag.ExitOnError)
	username := fs.String("username", "", "login name of the user to update")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("change-password: -username is required")
	}

	plain, err := promptPassword(true)
	if err != nil {
		return err
	}
	hash, err := password.DefaultConfig().Hash(plain)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, pool, err := openUserStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := store.UpdatePasswordHash(ctx, *username, hash); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fmt.Errorf("change-password: no such user %q", *username)
		}
		return err
	}

	fmt.Printf("password updated for %q\n", *username)
	return nil
}

// promptPassword reads a password from the terminal without echo. With
// confirm set it asks twice and requires both entries to match.
func promptPassword(confirm bool) (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	if !confirm {
		return string(first), nil
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func openUserStore(ctx context.Context) (identity.Store, *pgxpool.Pool, error) {
	// The operator subcommands honor the same .env convention as serve.
	_ = godotenv.Load()

	url := os.Getenv("ROLLCALL_DATABASE_URL")
	if url == "" {
		return nil, nil, errors.New("ROLLCALL_DATABASE_URL is required")
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	store, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool, nil
}
