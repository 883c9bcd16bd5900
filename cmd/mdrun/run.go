package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChamsBouzaiene/mdrun/internal/config"
	"github.com/ChamsBouzaiene/mdrun/internal/engine"
	"github.com/ChamsBouzaiene/mdrun/internal/prompts"
	"github.com/ChamsBouzaiene/mdrun/internal/providers"
	"github.com/ChamsBouzaiene/mdrun/internal/registry"
	"github.com/ChamsBouzaiene/mdrun/internal/report"
	"github.com/ChamsBouzaiene/mdrun/internal/sandbox"
	"github.com/ChamsBouzaiene/mdrun/internal/state"
	"github.com/ChamsBouzaiene/mdrun/internal/workspace"
)

var errNoGoal = errors.New("no goal given: usage: mdrun execute <goal>")

// loadSettings resolves the process settings and exports provider settings
// from the user config file.
func loadSettings(flags globalFlags) (config.Settings, error) {
	userConfig := &config.Config{}
	if m, err := config.NewManager(); err != nil {
		log.Printf("⚠️  Failed to initialize config manager: %v", err)
	} else if cfg, err := m.Load(); err != nil {
		log.Printf("⚠️  Failed to load user config: %v", err)
	} else {
		userConfig = cfg
	}
	config.ApplyToEnv(userConfig)

	return config.Resolve(userConfig, config.Flags{
		Root:          flags.root,
		Model:         flags.model,
		SandboxMode:   flags.sandboxMode,
		MaxIterations: flags.maxIterations,
	})
}

func sandboxConfig(s config.Settings) (sandbox.Config, error) {
	cfg := sandbox.DefaultConfig()
	if s.SandboxMode != "" {
		mode, err := sandbox.ParseMode(s.SandboxMode)
		if err != nil {
			return sandbox.Config{}, err
		}
		cfg.Mode = mode
	}
	if s.DockerImage != "" {
		cfg.Image = s.DockerImage
	}
	return cfg, nil
}

func loadRegistry(s config.Settings) (*registry.Registry, error) {
	reg, err := registry.Load(s.Root, s.Manifest, s.ComponentsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load component registry: %w", err)
	}
	return reg, nil
}

func runBoot(ctx context.Context, w io.Writer, flags globalFlags) error {
	s, err := loadSettings(flags)
	if err != nil {
		return err
	}
	if err := workspace.Clean(s.Workspace); err != nil {
		return fmt.Errorf("failed to reset workspace: %w", err)
	}
	reg, err := loadRegistry(s)
	if err != nil {
		return err
	}
	sbCfg, err := sandboxConfig(s)
	if err != nil {
		return err
	}

	status := "host (no sandboxing)"
	if sbCfg.Mode != sandbox.ModeHost {
		if err := sandbox.Available(ctx); err != nil {
			status = fmt.Sprintf("host (docker unavailable: %v)", err)
		} else {
			status = fmt.Sprintf("docker (%s)", sbCfg.Image)
		}
	}
	if _, err := os.Stat(s.SystemSpec); err != nil {
		status += "\nWARNING: system agent spec missing at " + s.SystemSpec
	}

	fmt.Fprintln(w, report.Banner(version, status, reg))
	fmt.Fprintf(w, "🗂️  Workspace reset: %s\n", s.Workspace)
	return nil
}

// session holds what every goal of one process shares.
type session struct {
	settings  config.Settings
	sandbox   sandbox.Config
	registry  *registry.Registry
	client    engine.LLMClient
	modelName string
	logger    *log.Logger
	out       io.Writer
}

func newSession(ctx context.Context, w io.Writer, flags globalFlags) (*session, error) {
	s, err := loadSettings(flags)
	if err != nil {
		return nil, err
	}
	sbCfg, err := sandboxConfig(s)
	if err != nil {
		return nil, err
	}
	reg, err := loadRegistry(s)
	if err != nil {
		return nil, err
	}
	client, modelName, err := providers.NewLLMClientFromEnv(ctx, s.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if flags.quiet {
		logger.SetOutput(io.Discard)
	}
	logger.Printf("🤖 Model: %s | components: %d | max iterations: %d", modelName, reg.Len(), s.MaxIterations)

	return &session{
		settings:  s,
		sandbox:   sbCfg,
		registry:  reg,
		client:    client,
		modelName: modelName,
		logger:    logger,
		out:       w,
	}, nil
}

// controller wires a fresh controller, with its own sandbox, for one goal.
func (s *session) controller(ctx context.Context) (*engine.Controller, error) {
	if err := os.MkdirAll(s.settings.Workspace, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	pr, err := prompts.LoadOverrides(s.settings.PromptsDir)
	if err != nil {
		return nil, err
	}

	hooks := engine.Hooks{engine.LoggerHook{L: s.logger}}
	exec := engine.NewExecutor(s.registry, hooks)
	model := engine.NewModel(s.client, s.modelName)
	model.Retry.MaxRetries = s.settings.LLMRetries
	model.Hooks = hooks
	engine.NewInterpreter(model, exec, s.settings.MaxDepth).Prompts = pr

	return &engine.Controller{
		Model:          model,
		Executor:       exec,
		Store:          state.NewStore(filepath.Join(s.settings.Workspace, "state")),
		Registry:       s.registry,
		Hooks:          hooks,
		Prompts:        pr,
		Workspace:      s.settings.Workspace,
		SystemSpecPath: s.settings.SystemSpec,
		MaxIterations:  s.settings.MaxIterations,
		Sandbox:        sandbox.Open(ctx, s.sandbox, s.settings.Workspace),
		Watch:          true,
	}, nil
}

// run executes goal and prints the report. It returns the run's error when
// the run failed.
func (s *session) run(ctx context.Context, goal string) error {
	c, err := s.controller(ctx)
	if err != nil {
		return err
	}
	out := c.Run(ctx, goal)

	md := report.Markdown(out)
	rendered, err := report.Render(md, 100, "")
	if err != nil {
		rendered = md
	}
	fmt.Fprintln(s.out, rendered)

	if out.State == engine.RunFailed {
		return fmt.Errorf("run failed: %w", out.Err)
	}
	return nil
}

func runExecute(ctx context.Context, w io.Writer, flags globalFlags, args []string) error {
	goal := strings.TrimSpace(strings.Join(args, " "))
	if goal == "" {
		return errNoGoal
	}
	sess, err := newSession(ctx, w, flags)
	if err != nil {
		return err
	}
	return sess.run(ctx, goal)
}

func runInteractive(ctx context.Context, r io.Reader, w io.Writer, flags globalFlags) error {
	sess, err := newSession(ctx, w, flags)
	if err != nil {
		return err
	}
	return repl(ctx, r, w, sess.run)
}

// repl reads goals until EOF, "exit" or "quit". A failed goal does not end
// the loop.
func repl(ctx context.Context, r io.Reader, w io.Writer, run func(context.Context, string) error) error {
	fmt.Fprintln(w, "Enter a goal per line; 'exit' or 'quit' to leave.")
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "mdrun> ")
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		goal := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(goal) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := run(ctx, goal); err != nil {
			fmt.Fprintf(w, "❌ %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
