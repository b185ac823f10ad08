package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/huddle/config"
	"github.com/c360studio/huddle/social"
	"github.com/c360studio/huddle/storage"
)

// App is the main application that wires together all components.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS
	embeddedServer *server.Server
	natsConn       *nats.Conn

	// Storage and session
	backend storage.Backend
	bus     storage.Bus
	watcher *storage.Watcher
	session *social.Session

	metricsServer *http.Server
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, logger: logger}
}

// Start initializes and starts all components.
func (a *App) Start(ctx context.Context) error {
	// Start NATS (embedded or connect to external)
	if err := a.startNATS(); err != nil {
		return fmt.Errorf("start NATS: %w", err)
	}

	bus, err := storage.NewNATSBus(a.natsConn, storage.WithBusLogger(a.logger))
	if err != nil {
		return fmt.Errorf("create bus: %w", err)
	}
	a.bus = bus

	if err := a.startBackend(ctx); err != nil {
		return err
	}

	session, err := social.NewSession(ctx, a.backend, a.bus,
		social.WithSessionLogger(a.logger),
		social.WithSweepInterval(a.cfg.Session.SweepInterval))
	if err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}
	a.session = session

	if a.cfg.Metrics.ListenAddr != "" {
		a.startMetrics()
	}

	fmt.Println("✓ Components initialized")
	return nil
}

func (a *App) startNATS() error {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		// Connect to external NATS
		a.logger.Info("Connecting to NATS", "url", a.cfg.NATS.URL)
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn
		return nil
	}

	// Start embedded NATS server
	a.logger.Info("Starting embedded NATS server")
	opts := &server.Options{
		Port:      -1, // Random available port
		JetStream: true,
		NoLog:     true,
		NoSigs:    true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	// Wait for server to be ready
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return fmt.Errorf("embedded NATS server failed to start")
	}

	a.embeddedServer = ns

	conn, err := nats.Connect(ns.ClientURL())
	if err != nil {
		ns.Shutdown()
		return fmt.Errorf("connect to embedded NATS: %w", err)
	}
	a.natsConn = conn
	return nil
}

func (a *App) startBackend(ctx context.Context) error {
	switch a.cfg.Storage.Backend {
	case config.BackendNATS:
		js, err := jetstream.New(a.natsConn)
		if err != nil {
			return fmt.Errorf("create JetStream context: %w", err)
		}
		backend, err := storage.NewKVBackend(ctx, js, a.cfg.Storage.Bucket)
		if err != nil {
			return fmt.Errorf("initialize KV backend: %w", err)
		}
		a.backend = backend

	default:
		backend, err := storage.NewFileBackend(a.cfg.Storage.Dir)
		if err != nil {
			return fmt.Errorf("initialize file backend: %w", err)
		}
		a.backend = backend

		// Pick up payloads written by other processes sharing the
		// directory.
		watcher, err := storage.NewWatcher(storage.WatcherConfig{
			Backend: backend,
			Bus:     a.bus,
			Logger:  a.logger,
		})
		if err != nil {
			return fmt.Errorf("create storage watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start storage watcher: %w", err)
		}
		a.watcher = watcher
	}
	return nil
}

func (a *App) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.metricsServer = &http.Server{Addr: a.cfg.Metrics.ListenAddr, Handler: mux}

	go func() {
		a.logger.Info("Serving metrics", "addr", a.cfg.Metrics.ListenAddr)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown(timeout time.Duration) {
	fmt.Println("\nShutting down...")

	if a.session != nil {
		a.session.Close()
	}

	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn("Watcher stop failed", "error", err)
		}
	}

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("Metrics server shutdown failed", "error", err)
		}
	}

	// Close NATS connection
	if a.natsConn != nil {
		a.natsConn.Drain()
		a.natsConn.Close()
	}

	// Shutdown embedded server
	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}

	fmt.Println("Goodbye!")
}

// RunREPL runs the interactive REPL loop.
func (a *App) RunREPL(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("huddle> ")

		if !scanner.Scan() {
			// EOF (Ctrl+D)
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if input == "quit" || input == "exit" {
			return nil
		}

		if strings.HasPrefix(input, "/") {
			a.handleCommand(ctx, input)
			continue
		}

		fmt.Println("Unknown input. Type /help for available commands.")
	}
}

func (a *App) handleCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	cmd, args := parts[0], parts[1:]
	switch cmd {
	case "/help":
		a.printHelp()

	case "/status":
		a.printStatus()

	case "/login":
		if len(args) < 2 {
			fmt.Println("Usage: /login <email> <password>")
			return
		}
		user, err := a.session.Login(ctx, args[0], args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
			return
		}
		fmt.Printf("Logged in as %s\n", user.Username)

	case "/logout":
		if err := a.session.Logout(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Logout failed: %v\n", err)
			return
		}
		fmt.Println("Logged out")

	case "/whoami":
		if user, ok := a.session.ActiveUser(); ok {
			fmt.Printf("%s <%s>\n%s\n", user.Username, user.Email, user.Bio)
		} else {
			fmt.Println("Not logged in")
		}

	case "/users":
		for _, u := range a.session.Users.Get() {
			fmt.Printf("%-8s %-16s %s\n", u.ID, u.Username, u.Bio)
		}

	case "/follow":
		user, ok := a.requireLogin()
		if !ok || len(args) < 1 {
			fmt.Println("Usage: /follow <userID>")
			return
		}
		if err := a.session.ToggleFollow(ctx, user.ID, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Follow failed: %v\n", err)
		}

	case "/bio":
		user, ok := a.requireLogin()
		if !ok || len(args) < 1 {
			fmt.Println("Usage: /bio <text>")
			return
		}
		if err := a.session.UpdateBio(ctx, user.ID, strings.Join(args, " ")); err != nil {
			fmt.Fprintf(os.Stderr, "Bio update failed: %v\n", err)
		}

	case "/post":
		user, ok := a.requireLogin()
		if !ok || len(args) < 1 {
			fmt.Println("Usage: /post <text>")
			return
		}
		post, err := a.session.CreatePost(ctx, user.ID, strings.Join(args, " "), "", "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Post failed: %v\n", err)
			return
		}
		fmt.Printf("Posted %s\n", post.ID)

	case "/feed":
		user, ok := a.requireLogin()
		if !ok {
			return
		}
		for _, p := range a.session.Feed(user.ID) {
			a.printPost(p)
		}

	case "/like":
		user, ok := a.requireLogin()
		if !ok || len(args) < 1 {
			fmt.Println("Usage: /like <postID>")
			return
		}
		if err := a.session.ToggleLike(ctx, args[0], user.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Like failed: %v\n", err)
		}

	case "/comment":
		user, ok := a.requireLogin()
		if !ok || len(args) < 2 {
			fmt.Println("Usage: /comment <postID> <text>")
			return
		}
		if _, err := a.session.AddComment(ctx, args[0], user.ID, strings.Join(args[1:], " ")); err != nil {
			fmt.Fprintf(os.Stderr, "Comment failed: %v\n", err)
		}

	case "/story":
		user, ok := a.requireLogin()
		if !ok || len(args) < 1 {
			fmt.Println("Usage: /story <mediaRef>")
			return
		}
		story, err := a.session.CreateStory(ctx, user.ID, args[0], social.MediaTypeImage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Story failed: %v\n", err)
			return
		}
		fmt.Printf("Story %s expires %s\n", story.ID, time.UnixMilli(story.ExpiresAt).Format(time.RFC3339))

	case "/stories":
		for _, st := range a.session.ActiveStories() {
			author, _ := a.session.UserByID(st.AuthorID)
			fmt.Printf("%s by %s (expires %s)\n", st.ID, displayName(author),
				time.UnixMilli(st.ExpiresAt).Format(time.RFC3339))
		}

	case "/chat":
		user, ok := a.requireLogin()
		if !ok || len(args) < 1 {
			fmt.Println("Usage: /chat <userID>")
			return
		}
		chat, err := a.session.StartDirectChat(ctx, user.ID, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
			return
		}
		fmt.Printf("Chat %s\n", chat.ID)
		for _, m := range chat.Messages {
			sender, _ := a.session.UserByID(m.SenderID)
			fmt.Printf("  %s: %s\n", displayName(sender), m.Content)
		}

	case "/msg":
		user, ok := a.requireLogin()
		if !ok || len(args) < 2 {
			fmt.Println("Usage: /msg <chatID> <text>")
			return
		}
		if _, err := a.session.SendChatMessage(ctx, args[0], user.ID, strings.Join(args[1:], " ")); err != nil {
			fmt.Fprintf(os.Stderr, "Message failed: %v\n", err)
		}

	case "/groups":
		for _, g := range a.session.Groups.Get() {
			fmt.Printf("%-8s %-20s %d members\n", g.ID, g.Name, len(g.MemberIDs))
		}

	case "/join":
		user, ok := a.requireLogin()
		if !ok || len(args) < 1 {
			fmt.Println("Usage: /join <groupID>")
			return
		}
		if err := a.session.JoinGroup(ctx, args[0], user.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Join failed: %v\n", err)
		}

	case "/gmsg":
		user, ok := a.requireLogin()
		if !ok || len(args) < 2 {
			fmt.Println("Usage: /gmsg <groupID> <text>")
			return
		}
		if _, err := a.session.SendGroupMessage(ctx, args[0], user.ID, strings.Join(args[1:], " ")); err != nil {
			fmt.Fprintf(os.Stderr, "Message failed: %v\n", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		fmt.Println("Type /help for available commands.")
	}
}

func (a *App) requireLogin() (social.User, bool) {
	user, ok := a.session.ActiveUser()
	if !ok {
		fmt.Println("Log in first: /login <email> <password>")
	}
	return user, ok
}

func (a *App) printPost(p social.Post) {
	author, _ := a.session.UserByID(p.AuthorID)
	fmt.Printf("[%s] %s: %s (%d likes, %d comments)\n",
		p.ID, displayName(author), p.Content, len(p.Likes), len(p.Comments))
	for _, c := range p.Comments {
		commenter, _ := a.session.UserByID(c.AuthorID)
		fmt.Printf("    %s: %s\n", displayName(commenter), c.Content)
	}
}

func (a *App) printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  /login <email> <password>   Log in")
	fmt.Println("  /logout                     Log out")
	fmt.Println("  /whoami                     Show the active user")
	fmt.Println("  /users                      List the roster")
	fmt.Println("  /follow <userID>            Toggle following a user")
	fmt.Println("  /bio <text>                 Update your bio")
	fmt.Println("  /post <text>                Publish a post")
	fmt.Println("  /feed                       Show your feed")
	fmt.Println("  /like <postID>              Toggle a like")
	fmt.Println("  /comment <postID> <text>    Comment on a post")
	fmt.Println("  /story <mediaRef>           Publish a story")
	fmt.Println("  /stories                    List active stories")
	fmt.Println("  /chat <userID>              Open a direct chat")
	fmt.Println("  /msg <chatID> <text>        Send a chat message")
	fmt.Println("  /groups                     List groups")
	fmt.Println("  /join <groupID>             Join a group")
	fmt.Println("  /gmsg <groupID> <text>      Send a group message")
	fmt.Println("  /status                     Show runtime status")
	fmt.Println("  quit/exit                   Exit the REPL")
}

func (a *App) printStatus() {
	fmt.Printf("Storage: %s\n", a.cfg.Storage.Backend)
	if a.cfg.Storage.Backend == config.BackendFile {
		fmt.Printf("  Dir: %s\n", a.cfg.Storage.Dir)
	} else {
		fmt.Printf("  Bucket: %s\n", a.cfg.Storage.Bucket)
	}
	if a.embeddedServer != nil {
		fmt.Println("NATS: embedded")
	} else {
		fmt.Printf("NATS: %s\n", a.cfg.NATS.URL)
	}
	fmt.Printf("Sweep interval: %s\n", a.cfg.Session.SweepInterval)
}

func displayName(u social.User) string {
	if u.Username == "" {
		return "unknown"
	}
	return u.Username
}
