package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/osvaldoandrade/tldw/pkg/domain"
)

type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

type profile struct {
	Server string `yaml:"server"`
	Token  string `yaml:"token"`
}

type cliConfig struct {
	CurrentProfile string             `yaml:"currentProfile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

func (c *client) request(method, path string, body any) (int, []byte, error) {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, nil
}

// send wraps params in a JSON-RPC envelope, posts it to the agent, and
// unwraps the result.
func (c *client) send(params domain.MessageSendParams) (*domain.TaskResult, error) {
	rpcReq := domain.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  domain.MethodMessageSend,
		Params:  params,
	}
	status, resp, err := c.request(http.MethodPost, "/a2a/summarize", rpcReq)
	if err != nil {
		return nil, err
	}
	var out domain.JSONRPCResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, fmt.Errorf("error (%d): %s", status, strings.TrimSpace(string(resp)))
	}
	if out.Error != nil {
		return nil, fmt.Errorf("rpc error (%d): %s", out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		return nil, fmt.Errorf("error (%d): %s", status, strings.TrimSpace(string(resp)))
	}
	return out.Result, nil
}

func main() {
	server := getenv("TLDW_SERVER", "http://localhost:8000")
	token := getenv("TLDW_TOKEN", "")
	profileName := getenv("TLDW_PROFILE", "")
	timeout := getenvDuration("TLDW_TIMEOUT", 5*time.Minute)
	ui := newUI()

	root := &cobra.Command{
		Use:   "tldw",
		Short: "tldw CLI",
		Long:  "tldw CLI for submitting YouTube videos to the summarizer agent.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&server, "server", server, "Agent base URL")
	root.PersistentFlags().StringVar(&token, "token", token, "Bearer token")
	root.PersistentFlags().StringVar(&profileName, "profile", profileName, "Config profile")
	root.PersistentFlags().DurationVar(&timeout, "timeout", timeout, "HTTP request timeout")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, _ := loadConfig()
		active := resolveProfileName(profileName, cfg)
		prof := cfg.Profiles[active]

		flags := cmd.Flags()
		if !flags.Changed("server") {
			if v := strings.TrimSpace(os.Getenv("TLDW_SERVER")); v != "" {
				server = v
			} else if prof.Server != "" {
				server = prof.Server
			}
		}
		if !flags.Changed("token") {
			if v := strings.TrimSpace(os.Getenv("TLDW_TOKEN")); v != "" {
				token = v
			} else if prof.Token != "" {
				token = prof.Token
			}
		}
		if !flags.Changed("profile") && profileName == "" && active != "" {
			profileName = active
		}
		return nil
	}

	root.AddCommand(initCmd(&profileName, ui))
	root.AddCommand(summarizeCmd(&server, &token, &timeout, ui))
	root.AddCommand(listenCmd(ui))
	root.AddCommand(cardCmd(&server, &token, &timeout, ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func initCmd(profileName *string, ui *ui) *cobra.Command {
	var (
		server   string
		token    string
		noPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]

			if server == "" {
				server = prof.Server
			}
			if server == "" {
				server = "http://localhost:8000"
			}

			if !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				server = prompt(reader, "Server URL", server)
				if token == "" {
					t, err := promptSecret(fmt.Sprintf("Bearer token (optional) [%s]", maskToken(prof.Token)))
					if err != nil {
						return err
					}
					token = t
				}
			}

			prof.Server = strings.TrimSpace(server)
			if token != "" {
				prof.Token = strings.TrimSpace(token)
			}

			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}

			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Initialized profile '%s' at %s\n", ui.ok("[OK]"), active, cfgPath)
			fmt.Printf("%s Server: %s\n", ui.info("•"), prof.Server)
			fmt.Printf("%s Token:  %s\n", ui.info("•"), maskToken(prof.Token))
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Agent base URL")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")
	return cmd
}

func summarizeCmd(server, token *string, timeout *time.Duration, ui *ui) *cobra.Command {
	var (
		taskID       string
		webhook      string
		webhookToken string
		file         string
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:     "summarize [youtube-url]",
		Short:   "Summarize a YouTube video",
		Example: "tldw summarize https://youtu.be/dQw4w9WgXcQ",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if webhookToken != "" && webhook == "" {
				return errors.New("--webhook-token requires --webhook")
			}
			c := newClient(*server, *token, *timeout)

			if file != "" {
				if len(args) > 0 {
					return errors.New("provide a URL or --file, not both")
				}
				if webhook != "" {
					return errors.New("cannot combine --webhook with --file")
				}
				if taskID != "" {
					return errors.New("cannot combine --task-id with --file")
				}
				return runBatch(c, file, asJSON, ui)
			}
			if len(args) != 1 {
				return errors.New("youtube-url is required (or use --file)")
			}

			params := domain.MessageSendParams{
				Message: domain.Message{
					Role:   domain.RoleUser,
					Parts:  []domain.Part{domain.TextPart(args[0])},
					TaskID: strings.TrimSpace(taskID),
				},
			}
			if webhook != "" {
				params.Configuration = &domain.MessageSendConfiguration{
					PushNotificationConfig: &domain.PushNotificationConfig{
						URL:   webhook,
						Token: webhookToken,
					},
				}
			}

			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Summarizing..."
			if webhook != "" {
				spin.Suffix = " Submitting task..."
			}
			spin.Start()
			result, err := c.send(params)
			spin.Stop()
			if err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return nil
			}

			switch result.Status.State {
			case domain.StateWorking:
				fmt.Printf("%s Task accepted: %s (%s)\n", ui.ok("[OK]"), result.ID, result.Status.State)
				fmt.Printf("%s Result will be delivered to %s\n", ui.info("[INFO]"), webhook)
			case domain.StateCompleted:
				fmt.Printf("%s Task completed: %s\n\n", ui.ok("[OK]"), result.ID)
				fmt.Println(messageText(result.Status.Message))
			case domain.StateFailed:
				return fmt.Errorf("task %s failed: %s", result.ID, messageText(result.Status.Message))
			default:
				fmt.Printf("%s Task %s: %s\n", ui.warn("[WARN]"), result.ID, result.Status.State)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&taskID, "task-id", "", "Task id to attach to the message")
	cmd.Flags().StringVar(&webhook, "webhook", "", "Webhook URL for non-blocking delivery")
	cmd.Flags().StringVar(&webhookToken, "webhook-token", "", "Bearer token the agent sends to the webhook")
	cmd.Flags().StringVar(&file, "file", "", "File with one YouTube URL per line")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw task result")
	return cmd
}

func runBatch(c *client, path string, asJSON bool, ui *ui) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", path)
	}

	bar := progressbar.NewOptions(len(urls),
		progressbar.OptionSetDescription("Summarizing"),
		progressbar.OptionSetWidth(18),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	type outcome struct {
		url    string
		result *domain.TaskResult
		err    error
	}
	outcomes := make([]outcome, 0, len(urls))
	for _, u := range urls {
		result, err := c.send(domain.MessageSendParams{
			Message: domain.Message{Role: domain.RoleUser, Parts: []domain.Part{domain.TextPart(u)}},
		})
		outcomes = append(outcomes, outcome{url: u, result: result, err: err})
		_ = bar.Add(1)
	}

	failed := 0
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			failed++
			fmt.Printf("%s %s: %s\n", ui.err("[ERROR]"), o.url, o.err.Error())
		case o.result.Status.State == domain.StateCompleted:
			if asJSON {
				b, err := json.Marshal(o.result)
				if err != nil {
					return err
				}
				fmt.Println(string(b))
			} else {
				fmt.Printf("%s %s\n", ui.ok("[OK]"), o.url)
			}
		default:
			failed++
			fmt.Printf("%s %s: %s\n", ui.err("[FAILED]"), o.url, messageText(o.result.Status.Message))
		}
	}
	fmt.Printf("%s %d of %d completed\n", ui.info("[INFO]"), len(urls)-failed, len(urls))
	if failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed, len(urls))
	}
	return nil
}

func listenCmd(ui *ui) *cobra.Command {
	var (
		port         int
		requireToken string
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:     "listen",
		Short:   "Run a local webhook receiver",
		Example: "tldw listen --port 9090",
		RunE: func(cmd *cobra.Command, args []string) error {
			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
					return
				}
				if requireToken != "" && r.Header.Get("Authorization") != "Bearer "+requireToken {
					fmt.Printf("%s Rejected delivery with bad authorization\n", ui.warn("[WARN]"))
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				body, err := io.ReadAll(r.Body)
				if err != nil {
					http.Error(w, "read error", http.StatusBadRequest)
					return
				}
				w.WriteHeader(http.StatusOK)
				if asJSON {
					fmt.Println(strings.TrimSpace(string(body)))
					return
				}
				var msg domain.Message
				if err := json.Unmarshal(body, &msg); err != nil {
					fmt.Printf("%s Undecodable payload: %s\n", ui.warn("[WARN]"), strings.TrimSpace(string(body)))
					return
				}
				fmt.Printf("%s Result for task %s\n", ui.ok("[OK]"), emptyOr(msg.TaskID, "<unknown>"))
				if txt := messageText(&msg); txt != "" {
					fmt.Println(txt)
				}
			})

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			go func() {
				<-ctx.Done()
				fmt.Println(ui.warn("[WARN]"), "Stopping...")
				shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutCancel()
				_ = srv.Shutdown(shutCtx)
			}()

			fmt.Printf("%s Webhook receiver listening on :%d\n", ui.info("[INFO]"), port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 9090, "Port to listen on")
	cmd.Flags().StringVar(&requireToken, "require-token", "", "Reject deliveries without this bearer token")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON payloads")
	return cmd
}

func cardCmd(server, token *string, timeout *time.Duration, ui *ui) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Fetch the agent card",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(*server, *token, *timeout)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Fetching agent card..."
			spin.Start()
			status, resp, err := c.request(http.MethodGet, "/.well-known/agent.json", nil)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, strings.TrimSpace(string(resp)))
			}
			if asJSON {
				fmt.Println(strings.TrimSpace(string(resp)))
				return nil
			}
			var card domain.AgentCard
			if err := json.Unmarshal(resp, &card); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			fmt.Printf("%s %s\n", ui.title("tldw"), card.Name)
			fmt.Printf("%s Version:   %s\n", ui.info("•"), card.Version)
			fmt.Printf("%s URL:       %s\n", ui.info("•"), card.URL)
			fmt.Printf("%s Streaming: %v\n", ui.info("•"), card.Capabilities.Streaming)
			fmt.Printf("%s Push:      %v\n", ui.info("•"), card.Capabilities.PushNotifications)
			for _, s := range card.Skills {
				fmt.Printf("%s Skill:     %s (%s)\n", ui.info("•"), s.Name, s.ID)
			}
			if card.Description != "" {
				fmt.Printf("%s %s\n", ui.dim("»"), card.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw agent card")
	return cmd
}

func messageText(msg *domain.Message) string {
	if msg == nil {
		return ""
	}
	var texts []string
	for _, p := range msg.Parts {
		if p.Kind == domain.PartKindText && strings.TrimSpace(p.Text) != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func newClient(baseURL, token string, timeout time.Duration) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func helpTemplate(ui *ui) string {
	title := ui.title("tldw")
	return fmt.Sprintf(`%s — too long; didn't watch

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  tldw init
  tldw summarize https://youtu.be/dQw4w9WgXcQ
  tldw summarize --file urls.txt
  tldw summarize https://youtu.be/dQw4w9WgXcQ --webhook http://localhost:9090/hook
  tldw listen --port 9090
  tldw card

`, title, configPath())
}

func configPath() string {
	if v := strings.TrimSpace(os.Getenv("TLDW_CONFIG_DIR")); v != "" {
		return filepath.Join(v, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".tldw", "config.yaml")
}

func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := termReadPassword()
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func termReadPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		return []byte(strings.TrimSpace(line)), err
	}
	return term.ReadPassword(fd)
}

func loadConfig() (cliConfig, string, error) {
	path := configPath()
	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cliConfig{Profiles: map[string]profile{}}, path, nil
		}
		return cfg, path, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, path, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	return cfg, path, nil
}

func saveConfig(cfg cliConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func resolveProfileName(flag string, cfg cliConfig) string {
	if strings.TrimSpace(flag) != "" {
		return strings.TrimSpace(flag)
	}
	if v := strings.TrimSpace(os.Getenv("TLDW_PROFILE")); v != "" {
		return v
	}
	if cfg.CurrentProfile != "" {
		return cfg.CurrentProfile
	}
	return "default"
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func maskToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<unset>"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}

func emptyOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
