package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsaffron/whai/internal/config"
	whaicontext "github.com/samsaffron/whai/internal/context"
	"github.com/samsaffron/whai/internal/driver"
	"github.com/samsaffron/whai/internal/llm"
	"github.com/samsaffron/whai/internal/mcp"
	"github.com/samsaffron/whai/internal/prompt"
	"github.com/samsaffron/whai/internal/render"
	"github.com/samsaffron/whai/internal/resolve"
	"github.com/samsaffron/whai/internal/role"
	"github.com/samsaffron/whai/internal/session"
	"github.com/samsaffron/whai/internal/tools"
	"github.com/samsaffron/whai/internal/truncate"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// maxContextTokens bounds the captured terminal context before it is woven
// into the user message, per spec.md §4.3.
const maxContextTokens = 3000

// exitError carries the process exit code a failed command should use,
// letting Execute stay a thin os.Exit wrapper around cobra's own error path.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

var (
	roleFlag              string
	modelFlag             string
	temperatureFlag       float32
	temperatureFlagSet    bool
	noContextFlag         bool
	timeoutFlag           int
	logLevelFlag          string
	interactiveConfigFlag bool
)

var rootCmd = &cobra.Command{
	Use:     "whai [flags] <question words...>",
	Version: version,
	Short:   "Ask an LLM about your terminal, with approval-gated command execution",
	Long: `whai answers free-form questions about what you're doing in the terminal,
using your recent shell activity as context, and can propose and (with your
approval) run shell commands to help.

Examples:
  whai "why did that last command fail?"
  whai -r devops "what's eating disk space in /var?"
  whai --no-context "explain the sticky bit on directories"`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAsk,
}

func init() {
	rootCmd.Flags().StringVarP(&roleFlag, "role", "r", "", "Select a role file")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Override model")
	rootCmd.Flags().Float32VarP(&temperatureFlag, "temperature", "t", 0, "Override temperature (0-2)")
	rootCmd.Flags().BoolVar(&noContextFlag, "no-context", false, "Skip context capture")
	rootCmd.Flags().IntVar(&timeoutFlag, "timeout", 120, "Per-command timeout in seconds")
	rootCmd.Flags().StringVarP(&logLevelFlag, "log-level", "v", "WARNING", "CRITICAL|ERROR|WARNING|INFO|DEBUG")
	rootCmd.Flags().BoolVar(&interactiveConfigFlag, "interactive-config", false, "Launch config wizard and exit")

	rootCmd.AddCommand(mcpCmd, modelsCmd, rolesCmd)
}

// Execute runs the root command and maps its outcome to a process exit code.
func Execute() {
	rootCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		temperatureFlagSet = cmd.Flags().Changed("temperature")
		return nil
	}

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.err != nil {
				fmt.Fprintln(os.Stderr, "Error:", exitErr.err)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	if timeoutFlag <= 0 {
		return &exitError{code: 2, err: fmt.Errorf("--timeout must be a positive number of seconds")}
	}
	if temperatureFlagSet && (temperatureFlag < 0 || temperatureFlag > 2) {
		return &exitError{code: 2, err: fmt.Errorf("--temperature must be in [0,2]")}
	}

	if interactiveConfigFlag {
		if _, err := config.RunInteractiveWizard(); err != nil {
			return &exitError{code: 1, err: fmt.Errorf("setup cancelled: %w", err)}
		}
		return nil
	}

	cfg, err := loadOrBootstrapConfig()
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	if len(args) == 0 {
		return &exitError{code: 2, err: fmt.Errorf(`please provide a question, e.g.: whai "what changed in this repo today?"`)}
	}
	query := strings.Join(args, " ")

	ctx, cancel := signalContext()
	defer cancel()

	roleName := role.Resolve(roleFlag, cfg)
	activeRole, err := role.Load(roleName)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	providerCfg := cfg.Providers[cfg.DefaultProvider]
	model := resolve.Model(modelFlag, activeRole, providerCfg)
	temperature := resolve.Temperature(temperatureFlagSet, temperatureFlag, activeRole)

	provider, err := llm.NewProviderByName(cfg, cfg.DefaultProvider, model)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	sink := render.New()

	mcpManager, mcpTools := initMCP(ctx, sink)
	if mcpManager != nil {
		defer func() { _ = mcpManager.Close() }()
	}

	toolSpecs := append([]llm.ToolSpec{shellToolSpec()}, mcpTools...)

	capturedContext, isDeep := captureContext(ctx, noContextFlag)

	systemPrompt := prompt.BuildSystemPrompt(activeRole, isDeep)
	truncatedContext, _ := truncate.Truncate(capturedContext, maxContextTokens)
	userMessage := prompt.BuildUserMessage(query, truncatedContext)

	messages := []llm.Message{llm.SystemText(systemPrompt), userMessage}

	d := &driver.Driver{
		Provider:     provider,
		Model:        model,
		Temperature:  temperature,
		Shell:        tools.NewShell(),
		Approval:     tools.NewApproval(),
		MCP:          mcpManager,
		Sink:         sink,
		ShellTimeout: time.Duration(timeoutFlag) * time.Second,
		SelfLog:      selfLogger(),
		InvokedAs:    resolve.InvocationToExclude(resolve.ReadArgv()),
		Debug:        strings.EqualFold(logLevelFlag, "DEBUG"),
	}

	outcome, runErr := d.Run(ctx, messages, toolSpecs)
	switch outcome {
	case driver.OutcomeInterrupted:
		return &exitError{code: 130}
	case driver.OutcomeError:
		return &exitError{code: 1, err: runErr}
	default:
		return nil
	}
}

func loadOrBootstrapConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrConfigMissing) {
		return config.RunInteractiveWizard()
	}
	return cfg, err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// captureContext runs the context-capture pipeline unless skip is set,
// excluding this invocation's own line so the model doesn't see itself
// being asked the question it's about to answer.
func captureContext(ctx context.Context, skip bool) (string, bool) {
	if skip {
		return "", false
	}

	excludeCmd := resolve.InvocationToExclude(resolve.ReadArgv())
	transcriptPath, active := session.ActiveTranscriptPath()
	selfLogPath := ""
	if active {
		selfLogPath = session.SelfLogPathFor(transcriptPath)
	}

	sources := whaicontext.DefaultSources(active, transcriptPath, selfLogPath)
	result, err := whaicontext.Get(ctx, excludeCmd, sources...)
	if err != nil {
		return "", false
	}
	return result.Text, result.IsDeep
}

func shellToolSpec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        tools.ShellToolName,
		Description: "Execute a shell command and return its stdout, stderr, and exit code.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"command": map[string]interface{}{
					"type":        "string",
					"description": "The shell command to run",
				},
			},
			"required": []string{"command"},
		},
	}
}

// mcpConfigPath returns <config_dir>/mcp.json, the location `whai mcp`
// writes to and the driver reads from. A missing file means MCP support is
// disabled, not an error.
func mcpConfigPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mcp.json"), nil
}

func initMCP(ctx context.Context, sink *render.Sink) (*mcp.Manager, []llm.ToolSpec) {
	path, err := mcpConfigPath()
	if err != nil {
		return nil, nil
	}

	mcpCfg, err := mcp.LoadConfig(path)
	if err != nil || len(mcpCfg.Servers) == 0 {
		return nil, nil
	}

	manager := mcp.NewManager()
	for _, initErr := range manager.Initialize(ctx, mcpCfg) {
		sink.Warn(fmt.Sprintf("MCP server %q failed to start: %s", initErr.Server, initErr.Message))
	}

	specs, err := manager.AllTools(ctx)
	if err != nil {
		sink.Warn(err.Error())
		return manager, nil
	}

	toolSpecs := make([]llm.ToolSpec, len(specs))
	for i, s := range specs {
		toolSpecs[i] = llm.ToolSpec{Name: s.Name, Description: s.Description, Schema: s.Schema}
	}
	return manager, toolSpecs
}

func selfLogger() *session.Logger {
	transcriptPath, active := session.ActiveTranscriptPath()
	if !active {
		return session.NewLogger("")
	}
	return session.NewLogger(session.SelfLogPathFor(transcriptPath))
}
