// Command agent is the CLI entry point for the agent runtime: it resolves
// options, loads configuration and credentials, selects a provider/model,
// and drives a single bounded turn loop to completion.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Ad4m2017/agent-cli-sub000/internal/approval"
	"github.com/Ad4m2017/agent-cli-sub000/internal/attachments"
	"github.com/Ad4m2017/agent-cli-sub000/internal/capability"
	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/cliopts"
	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/credentials"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
	"github.com/Ad4m2017/agent-cli-sub000/internal/loop"
	"github.com/Ad4m2017/agent-cli-sub000/internal/policy"
	"github.com/Ad4m2017/agent-cli-sub000/internal/result"
	"github.com/Ad4m2017/agent-cli-sub000/internal/tools"
	"github.com/Ad4m2017/agent-cli-sub000/internal/transport"
	"github.com/Ad4m2017/agent-cli-sub000/internal/usage"
)

// Build information, populated by ldflags during release builds.
var (
	version = "dev"
	commit  = "none"
)

const (
	defaultConfigPath     = "./agent.json"
	defaultAuthConfigPath = "./agent.auth.json"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run contains the whole CLI lifecycle, taking argv and output streams as
// parameters so it can be exercised without touching the real process.
func run(argv []string, stdout, stderr io.Writer) int {
	opts, err := cliopts.Parse(argv)
	if err != nil {
		return reportEarlyError(stderr, err)
	}

	if opts.Help {
		printUsage(stdout)
		return 0
	}
	if opts.Version {
		fmt.Fprintf(stdout, "agent %s (commit %s)\n", version, commit)
		return 0
	}

	opts = cliopts.ApplyEnvOverrides(opts, cliopts.EnvMap(os.Environ()))

	logger := buildLogger(opts)
	slog.SetDefault(logger)

	if opts.JSONSchema {
		reg := tools.NewRegistry(".", tools.ShellConfig{})
		printToolSchema(stdout, reg)
		return 0
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = defaultConfigPath
	}
	authPath := opts.AuthConfigPath
	if authPath == "" {
		authPath = defaultAuthConfigPath
	}

	runtimeCfg, err := config.LoadRuntimeConfig(configPath)
	if err != nil {
		return reportError(stdout, stderr, result.Params{}, err, opts.JSON)
	}

	credStore, err := config.LoadCredentials(authPath)
	if err != nil {
		return reportError(stdout, stderr, result.Params{}, err, opts.JSON)
	}

	eff := resolveEffective(opts, runtimeCfg)

	if opts.Stats {
		return runStatsReport(stdout, eff, opts.StatsTopN)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return reportError(stdout, stderr, result.Params{}, errs.Wrap(errs.CodeRuntimeError, "cannot resolve working directory", err), opts.JSON)
	}

	selection := resolveSelection(opts.Model, runtimeCfg.DefaultProvider, runtimeCfg.DefaultModel, credStore)

	baseParams := result.Params{
		Provider:     selection.Provider,
		Model:        selection.Model,
		Profile:      eff.Profile,
		Mode:         "chat",
		ApprovalMode: eff.DefaultApproval,
		ToolsMode:    eff.DefaultToolsMode,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exitOnSignal := installSignalHandler(cancel)

	start := time.Now()

	runtime, err := resolveRuntime(ctx, selection, credStore, authPath, eff.AllowInsecureHTTP)
	if err != nil {
		return reportError(stdout, stderr, baseParams, err, opts.JSON)
	}

	files, images, err := attachments.ResolveAll(cwd, opts.Files, opts.Images, eff.Attachments)
	if err != nil {
		return reportError(stdout, stderr, baseParams, err, opts.JSON)
	}
	if len(images) > 0 && !capability.ModelLikelySupportsVision(selection.Provider, selection.Model) {
		logger.Warn("model is unlikely to support image input", "provider", selection.Provider, "model", selection.Model)
	}

	engine := policy.NewEngine()
	var approver tools.Approver
	if eff.DefaultApproval == config.ApprovalAsk {
		approver = approval.NewPrompter(eff.ApprovalTimeoutMs, opts.JSON)
	}
	shellCfg := tools.ShellConfig{
		Cwd:              cwd,
		Engine:           engine,
		Policy:           eff.Security,
		Profile:          eff.Profile,
		ApprovalMode:     eff.DefaultApproval,
		CommandTimeoutMs: eff.CommandTimeoutMs,
		Approver:         approver,
	}
	registry := tools.NewRegistry(cwd, shellCfg)

	var usageWriter *usage.Writer
	if eff.UsageStats.Enabled {
		usageWriter = usage.NewWriter(eff.UsageStats)
	}

	systemPrompt := ""
	if eff.SystemPrompt != nil {
		systemPrompt = *eff.SystemPrompt
	}

	chatFiles := toChatAttachments(files)
	chatImages := toChatAttachments(images)

	toolsEnabled := eff.DefaultToolsMode != config.ToolsOff

	var streamSink func(string)
	streamedToStdout := false
	useStream := capability.ShouldUseStreaming(opts.Stream, opts.JSON, toolsEnabled, runtime.Provider)
	if useStream {
		streamedToStdout = true
		streamSink = func(text string) {
			fmt.Fprint(stdout, text)
		}
	}

	st, runErr := loop.Run(ctx, loop.Params{
		Client:          http.DefaultClient,
		Runtime:         runtime,
		Registry:        registry,
		UsageWriter:     usageWriter,
		SystemPrompt:    systemPrompt,
		UserText:        opts.Message,
		Files:           chatFiles,
		Images:          chatImages,
		ToolsEnabled:    toolsEnabled,
		ToolsMode:       eff.DefaultToolsMode,
		StreamRequested: opts.Stream,
		JSONMode:        opts.JSON,
		MaxToolTurns:    eff.MaxToolTurns,
		TimeoutMs:       eff.CommandTimeoutMs,
		RetryOptions:    loggingRetryOptions(logger),
		StreamSink:      streamSink,
	})

	timingMs := time.Since(start).Milliseconds()
	params := baseParams
	params.ToolsEnabled = st.ToolsEnabled
	params.ToolsFallback = st.ToolsFallbackUsed
	params.RetriesUsed = st.RetriesUsed
	params.Usage = st.Usage
	params.ToolCalls = st.ToolCallRecords
	params.Files = attachmentPaths(files)
	params.Images = attachmentPaths(images)
	params.TimingMs = timingMs

	if exitOnSignal() {
		return result.SignalExitCode(int(syscall.SIGINT))
	}

	if runErr != nil {
		return reportError(stdout, stderr, params, runErr, opts.JSON)
	}

	doc := result.BuildSuccess(params, st.FinalText)
	return writeSuccess(stdout, doc, opts.JSON, streamedToStdout)
}

// writeSuccess renders doc per the Result Shaper contract (spec.md 4.J):
// --json always emits the full Document; otherwise only the final text is
// written, skipped when streaming already wrote it incrementally.
func writeSuccess(stdout io.Writer, doc result.Document, jsonMode, streamedToStdout bool) int {
	if jsonMode {
		b, err := result.Marshal(doc)
		if err != nil {
			fmt.Fprintln(stdout, doc.Message)
			return 1
		}
		stdout.Write(b)
		return 0
	}
	if !streamedToStdout {
		fmt.Fprintln(stdout, doc.Message)
	}
	return 0
}

// resolveEffective overlays CLI/env options (already merged by cliopts) onto
// the file+defaults runtime config, per spec.md 4.A's precedence chain.
func resolveEffective(opts cliopts.Options, rc *config.RuntimeConfig) config.RuntimeConfig {
	eff := *rc
	if opts.Profile != "" {
		eff.Profile = opts.Profile
	}
	if opts.Approval != "" {
		eff.DefaultApproval = opts.Approval
	}
	if opts.Tools != "" {
		eff.DefaultToolsMode = opts.Tools
	}
	if opts.CommandTimeoutMs != 0 {
		eff.CommandTimeoutMs = opts.CommandTimeoutMs
	}
	if opts.AllowInsecureHTTP {
		eff.AllowInsecureHTTP = true
	}
	if opts.SystemPrompt != nil {
		eff.SystemPrompt = opts.SystemPrompt
	}
	if opts.MaxFileBytes != nil {
		eff.Attachments.MaxFileBytes = opts.MaxFileBytes
	}
	if opts.MaxImageBytes != nil {
		eff.Attachments.MaxImageBytes = opts.MaxImageBytes
	}
	if opts.MaxFiles != nil {
		eff.Attachments.MaxFiles = opts.MaxFiles
	}
	if opts.MaxImages != nil {
		eff.Attachments.MaxImages = opts.MaxImages
	}
	eff.CommandTimeoutMs = config.ResolveCommandTimeoutMs(eff.CommandTimeoutMs)
	eff.MaxToolTurns = config.ResolveMaxToolTurns(eff.MaxToolTurns)
	return eff
}

// Selection is the resolved {provider, model} pair for one invocation
// (spec.md Data Model: Selection).
type Selection struct {
	Provider string
	Model    string
}

// resolveSelection splits a "provider/model" override on its first slash;
// a bare model name keeps the configured default provider. An empty
// override falls back to the config/credential-store default model.
func resolveSelection(override, defaultProvider, defaultModel string, cs *config.CredentialStore) Selection {
	raw := override
	if raw == "" {
		raw = defaultModel
	}
	provider := defaultProvider
	if cs != nil {
		if provider == "" {
			provider = cs.DefaultProvider
		}
		if raw == "" {
			raw = cs.DefaultModel
		}
	}
	if idx := strings.IndexByte(raw, '/'); idx > 0 {
		return Selection{Provider: raw[:idx], Model: raw[idx+1:]}
	}
	return Selection{Provider: provider, Model: raw}
}

// resolveRuntime builds the prepared HTTP context for selection, dispatching
// to the openai-compatible resolver or the hosted-editor OAuth/runtime-token
// state machine depending on the stored provider entry's kind.
func resolveRuntime(ctx context.Context, sel Selection, cs *config.CredentialStore, authPath string, allowInsecureHTTP bool) (credentials.Runtime, error) {
	if cs == nil || sel.Provider == "" {
		return credentials.Runtime{}, errs.New(errs.CodeProviderNotConfigured, "no provider configured")
	}
	entry, ok := cs.Providers[sel.Provider]
	if !ok {
		return credentials.Runtime{}, errs.New(errs.CodeProviderNotConfigured, "provider not configured: "+sel.Provider)
	}

	switch entry.Kind {
	case config.ProviderGitHubCopilot:
		persist := func(updated config.ProviderEntry) error {
			cs.Providers[sel.Provider] = updated
			return config.SaveCredentials(authPath, cs)
		}
		adapter := credentials.NewCopilotAdapter(persist)
		updated, err := adapter.EnsureRuntimeToken(ctx, entry)
		if err != nil {
			return credentials.Runtime{}, err
		}
		headers := map[string]string{
			"Editor-Version":        credentials.DefaultEditorVersion,
			"Editor-Plugin-Version": credentials.DefaultPluginVersion,
			"User-Agent":            credentials.DefaultUserAgent,
		}
		for k, v := range updated.ExtraHeaders {
			headers[k] = v
		}
		return credentials.Runtime{
			Provider: sel.Provider,
			Model:    sel.Model,
			BaseURL:  updated.APIBaseURL,
			APIKey:   updated.RuntimeToken,
			Headers:  headers,
		}, nil
	default:
		rt, err := credentials.ResolveOpenAICompatible(entry, credentials.EnvMap(), allowInsecureHTTP)
		if err != nil {
			return credentials.Runtime{}, err
		}
		rt.Provider = sel.Provider
		rt.Model = sel.Model
		return rt, nil
	}
}

func toChatAttachments(in []chatmodel.Attachment) []chatmodel.Attachment {
	if in == nil {
		return []chatmodel.Attachment{}
	}
	return in
}

func attachmentPaths(in []chatmodel.Attachment) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		out = append(out, a.Path)
	}
	return out
}

// loggingRetryOptions wires transport retry callbacks to structured debug
// logs without coupling the transport package to log/slog directly.
func loggingRetryOptions(logger *slog.Logger) transport.RetryOptions {
	opts := transport.DefaultRetryOptions()
	opts.LogFn = func(msg string) { logger.Debug(msg) }
	opts.OnRetry = func(attempt int, delay time.Duration) {
		logger.Warn("retrying request", "attempt", attempt, "delay_ms", delay.Milliseconds())
	}
	return opts
}

// installSignalHandler cancels cancel on SIGINT/SIGTERM and returns a
// predicate reporting whether a signal fired, so main can map the exit code.
func installSignalHandler(cancel context.CancelFunc) func() bool {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	fired := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			close(fired)
			cancel()
		case <-fired:
		}
	}()
	return func() bool {
		select {
		case <-fired:
			return true
		default:
			return false
		}
	}
}

func buildLogger(opts cliopts.Options) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelInfo
	}
	if opts.Debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if !opts.Log {
		return slog.New(handler)
	}

	logFile := opts.LogFile
	if logFile == "" {
		logFile = "./agent.log"
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return slog.New(handler)
	}
	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(multiHandler{handlers: []slog.Handler{handler, fileHandler}})
}

// multiHandler fans out log records to every wrapped handler, used to send
// errors to both stderr and the optional --log-file.
type multiHandler struct {
	handlers []slog.Handler
}

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		out[i] = h.WithAttrs(attrs)
	}
	return multiHandler{handlers: out}
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		out[i] = h.WithGroup(name)
	}
	return multiHandler{handlers: out}
}

func reportEarlyError(stderr io.Writer, err error) int {
	fmt.Fprintln(stderr, result.RedactString(err.Error()))
	return result.ExitCode(err)
}

func reportError(stdout, stderr io.Writer, params result.Params, err error, jsonMode bool) int {
	doc := result.BuildError(params, err)
	if jsonMode {
		b, marshalErr := result.Marshal(doc)
		if marshalErr == nil {
			stdout.Write(b)
		}
	} else {
		fmt.Fprintln(stderr, doc.Error.Code+": "+doc.Error.Message)
	}
	return result.ExitCode(err)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `agent - terminal-based, multi-provider AI agent runtime

Usage: agent [options]

  -m, --message <text>       user prompt
      --model <provider/model|model>  selection override
      --config <path>        runtime/policy config path (default ./agent.json)
      --auth-config <path>   credentials path (default ./agent.auth.json)
      --profile <safe|dev|framework>
      --approval <ask|auto|never>
      --tools <auto|on|off>
      --no-tools
      --yes
      --unsafe
      --file <path>          repeatable
      --image <path>         repeatable
      --system-prompt <text>
      --max-file-bytes, --max-image-bytes, --max-files, --max-images <n>
      --command-timeout <ms>
      --allow-insecure-http
      --json
      --json-schema
      --stream
      --verbose, --debug
      --log, --log-file <path>
      --stats [n]
  -h, --help
  -V, --version
`)
}

func printToolSchema(w io.Writer, reg *tools.Registry) {
	type schemaEntry struct {
		Name   string         `json:"name"`
		Schema map[string]any `json:"schema"`
	}
	names := reg.Names()
	toolDefs := reg.OpenAITools()
	entries := make([]schemaEntry, 0, len(names))
	for _, t := range toolDefs {
		entries = append(entries, schemaEntry{Name: t.Function.Name, Schema: t.Function.Parameters.(map[string]any)})
	}
	b, _ := json.MarshalIndent(entries, "", "  ")
	w.Write(append(b, '\n'))
}

func runStatsReport(stdout io.Writer, eff config.RuntimeConfig, topN int) int {
	if !eff.UsageStats.Enabled || eff.UsageStats.File == "" {
		fmt.Fprintln(stdout, "usage stats are not enabled")
		return 0
	}
	data, err := os.ReadFile(eff.UsageStats.File)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(stdout, "no usage data recorded yet")
			return 0
		}
		fmt.Fprintln(stdout, "cannot read usage stats file:", err)
		return 1
	}

	type agg struct {
		Requests int   `json:"requests"`
		Input    int64 `json:"input_tokens"`
		Output   int64 `json:"output_tokens"`
		Total    int64 `json:"total_tokens"`
	}
	byModel := map[string]*agg{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e usage.Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue // tolerate a partial last line
		}
		key := e.Provider + "/" + e.Model
		a, ok := byModel[key]
		if !ok {
			a = &agg{}
			byModel[key] = a
		}
		a.Requests += e.RequestCount
		a.Input += e.InputTokens
		a.Output += e.OutputTokens
		a.Total += e.TotalTokens
	}

	out := map[string]any{"models": byModel}
	if topN > 0 {
		out["topN"] = topN
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	stdout.Write(append(b, '\n'))
	return 0
}
