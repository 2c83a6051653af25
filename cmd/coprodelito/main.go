package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/coprodeli/coprodelito/pkg/bus"
	"github.com/coprodeli/coprodelito/pkg/config"
	"github.com/coprodeli/coprodelito/pkg/directory"
	"github.com/coprodeli/coprodelito/pkg/emolog"
	"github.com/coprodeli/coprodelito/pkg/engine"
	"github.com/coprodeli/coprodelito/pkg/logger"
	"github.com/coprodeli/coprodelito/pkg/providers"
	"github.com/coprodeli/coprodelito/pkg/session"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "coprodelito"

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Printf("  Go: %s\n", goVer)
	}
}

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".coprodelito", "config.json")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

func onboard() {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		fmt.Print("Overwrite? (y/n): ")
		reader := bufio.NewReader(os.Stdin)
		response, readErr := reader.ReadString('\n')
		if readErr != nil {
			fmt.Printf("Error reading input: %v\n", readErr)
			fmt.Println("Aborted.")
			return
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s is ready!\n", appName)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Add your Gemini API key to", configPath)
	fmt.Println("     Get one at: https://aistudio.google.com/apikey")
	fmt.Println("  2. Register a student: coprodelito register -e nombre.apellido@spc.edu.pe -p <8 chars>")
	fmt.Println("  3. Chat: coprodelito chat -s nombre.apellido@spc.edu.pe")
	fmt.Println("  4. Check readiness: coprodelito status")
}

func validateRuntimeConfig(cfg *config.Config) error {
	configPath := getConfigPath()
	switch cfg.Assistant.Provider {
	case "", "gemini":
		if strings.TrimSpace(cfg.Providers.Gemini.APIKey) == "" {
			return fmt.Errorf("providers.gemini.api_key is required in %s or COPRODELITO_PROVIDERS_GEMINI_API_KEY", configPath)
		}
	case "openrouter":
		if strings.TrimSpace(cfg.Providers.OpenRouter.APIKey) == "" {
			return fmt.Errorf("providers.openrouter.api_key is required in %s or COPRODELITO_PROVIDERS_OPENROUTER_API_KEY", configPath)
		}
	}
	return nil
}

func buildEmotionStore(cfg *config.Config) (emolog.Store, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		return emolog.NewSQLiteStore(cfg.StorePath())
	case "supabase":
		return emolog.NewSupabaseStore(cfg.Store.Supabase)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func buildDirectoryStore(cfg *config.Config) (directory.Store, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		return directory.NewSQLiteStore(filepath.Join(filepath.Dir(cfg.StorePath()), "students.db"))
	case "supabase":
		return directory.NewSupabaseStore(cfg.Store.Supabase)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func buildEngine(cfg *config.Config) (*engine.Engine, func(), error) {
	ctx := context.Background()

	generator, err := providers.CreateGenerator(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create provider: %w", err)
	}

	emotionStore, err := buildEmotionStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open emotion store: %w", err)
	}

	snapshots, err := session.NewStore(cfg.Sessions)
	if err != nil {
		emotionStore.Close()
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}

	registry := session.NewRegistry(snapshots)
	eng := engine.New(cfg, generator, registry, emotionStore)

	cleanup := func() {
		emotionStore.Close()
		snapshots.Close()
	}
	return eng, cleanup, nil
}

func chatCmd() {
	message := ""
	subject := "console"

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--debug", "-d":
			logger.SetLevel(logger.DEBUG)
			fmt.Println("🔍 Debug mode enabled")
		case "-m", "--message":
			if i+1 < len(args) {
				message = args[i+1]
				i++
			}
		case "-s", "--subject":
			if i+1 < len(args) {
				subject = args[i+1]
				i++
			}
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := validateRuntimeConfig(cfg); err != nil {
		fmt.Printf("Configuration error: %v\n", err)
		os.Exit(1)
	}

	eng, cleanup, err := buildEngine(cfg)
	if err != nil {
		fmt.Printf("Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if message != "" {
		reply, err := eng.HandleTurn(context.Background(), subject, message)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n%s %s\n", appName, reply)
		return
	}

	interactiveMode(eng, subject)
}

// interactiveMode drives the engine through the bus the way a gateway
// transport would: the REPL publishes inbound messages and prints what
// comes back on the outbound channel.
func interactiveMode(eng *engine.Engine, subject string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgBus := bus.NewMessageBus()
	defer msgBus.Close()
	loop := engine.NewLoop(eng, msgBus)
	go loop.Run(ctx)
	defer loop.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	exchange := func(kind, content string) {
		msgBus.PublishInbound(bus.InboundMessage{
			Channel:   "cli",
			SubjectID: subject,
			Kind:      kind,
			Content:   content,
		})
		reply, ok := msgBus.SubscribeOutbound(ctx)
		if !ok {
			return
		}
		fmt.Printf("\n%s %s\n\n", appName, reply.Content)
	}

	exchange(bus.KindWelcome, "")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s You: ", appName),
		HistoryFile:     filepath.Join(os.TempDir(), ".coprodelito_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(exchange)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\n¡Hasta pronto!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("¡Hasta pronto!")
			return
		}

		exchange(bus.KindTurn, input)
	}
}

func simpleInteractiveMode(exchange func(kind, content string)) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s You: ", appName)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\n¡Hasta pronto!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("¡Hasta pronto!")
			return
		}

		exchange(bus.KindTurn, input)
	}
}

func registerCmd() {
	email, password := credentialArgs()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	store, err := buildDirectoryStore(cfg)
	if err != nil {
		fmt.Printf("Error opening directory store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	student, err := store.Register(context.Background(), email, password)
	if err != nil {
		fmt.Printf("✗ Registration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Registered %s (%s)\n", student.Name, student.Email)
}

func loginCmd() {
	email, password := credentialArgs()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	store, err := buildDirectoryStore(cfg)
	if err != nil {
		fmt.Printf("Error opening directory store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	student, err := store.Authenticate(context.Background(), email, password)
	if err != nil {
		fmt.Printf("✗ Login failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Welcome back, %s\n", student.Name)
	fmt.Printf("  Chat with: %s chat -s %s\n", appName, student.Email)
}

func credentialArgs() (email, password string) {
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-e", "--email":
			if i+1 < len(args) {
				email = strings.ToLower(strings.TrimSpace(args[i+1]))
				i++
			}
		case "-p", "--password":
			if i+1 < len(args) {
				password = strings.TrimSpace(args[i+1])
				i++
			}
		}
	}
	return email, password
}

func statusCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	configPath := getConfigPath()

	fmt.Printf("%s Status\n", appName)
	fmt.Printf("Version: %s\n", formatVersion())
	build, _ := formatBuildInfo()
	if build != "" {
		fmt.Printf("Build: %s\n", build)
	}
	fmt.Println()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config:", configPath, "✓")
	} else {
		fmt.Println("Config:", configPath, "✗")
	}

	storePath := cfg.StorePath()
	if cfg.Store.Driver == "supabase" {
		fmt.Println("Store: supabase", cfg.Store.Supabase.URL)
	} else if _, err := os.Stat(storePath); err == nil {
		fmt.Println("Emotion DB:", storePath, "✓")
	} else {
		fmt.Println("Emotion DB:", storePath, "not initialized")
	}

	fmt.Printf("Provider: %s\n", cfg.Assistant.Provider)
	fmt.Printf("Model: %s\n", cfg.Assistant.Model)
	fmt.Printf("Sessions: %s\n", cfg.Sessions.Driver)

	status := func(ready bool) string {
		if ready {
			return "✓"
		}
		return "not set"
	}
	geminiReady := strings.TrimSpace(cfg.Providers.Gemini.APIKey) != ""
	openrouterReady := strings.TrimSpace(cfg.Providers.OpenRouter.APIKey) != ""
	fmt.Println("Gemini API:", status(geminiReady))
	fmt.Println("OpenRouter API:", status(openrouterReady))
	fmt.Println("Chat ready:", status(validateRuntimeConfig(cfg) == nil))
}
