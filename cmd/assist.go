package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"hyde/internal/assistant"
	"hyde/internal/cli"
	"hyde/internal/reconciler"
)

const (
	assistPrompt      = "hyde> "
	assistHistoryFile = "assist_history"
)

// newChatClient is a variable to allow replacing the model in tests.
var newChatClient = func(opts assistant.ClientOptions) (assistant.ChatClient, error) {
	c, err := assistant.NewOpenAIClient(opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// newAssistCmd asks a language model for setting changes.
func newAssistCmd(flags *cli.CommandFlags) *cobra.Command {
	var (
		yes     bool
		saveKey bool
		model   string
	)

	cmd := &cobra.Command{
		Use:   "assist [request]",
		Short: "Change settings by describing what you want",
		Long: `Describe the change you want in plain words and review the settings the
assistant suggests before they are applied. Suggested changes go through the
same validation as 'hyde-settings set'.

Without a request an interactive session starts; type 'reset' to start a new
conversation and 'exit' to leave.

The API key is read from the key file in the config directory, a .env file
there, or OPENAI_API_KEY. Store a key with:
  echo "$KEY" | hyde-settings assist --save-key`,
		Example: `  hyde-settings assist "make window corners rounder"
  hyde-settings assist --yes "move notifications to the bottom left"
  hyde-settings assist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if saveKey {
				return storeAPIKey(cmd, flags)
			}

			w, err := openWorkspace(cmd, flags, true)
			if err != nil {
				return err
			}
			defer w.saveStateOnExit()

			opts := w.cfg.Assistant
			if model != "" {
				opts.Model = model
			}
			key, err := assistant.LoadAPIKey(w.configPath, opts.APIKeyFile)
			if err != nil {
				return err
			}
			client, err := newChatClient(assistant.ClientOptions{
				APIKey:      key,
				BaseURL:     opts.BaseURL,
				Model:       opts.Model,
				Temperature: opts.Temperature,
				Timeout:     opts.Timeout,
			})
			if err != nil {
				return err
			}

			s := &assistSession{
				w:         w,
				cmd:       cmd,
				assistant: assistant.NewChatAssistant(client, w.rec.Registry(), opts.MaxHistory),
				yes:       yes,
			}

			if len(args) > 0 {
				s.confirm = confirmFrom(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
				return s.turn(cmd.Context(), strings.Join(args, " "))
			}
			return s.repl(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply suggested changes without asking")
	cmd.Flags().BoolVar(&saveKey, "save-key", false, "Read an API key from stdin and store it in the config directory")
	cmd.Flags().StringVar(&model, "model", "", "Model to use (default from config)")
	return cmd
}

// storeAPIKey saves the first line of stdin as the API key.
func storeAPIKey(cmd *cobra.Command, flags *cli.CommandFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return errors.New("no API key given on stdin")
	}

	if err := assistant.SaveAPIKey(flags.ConfigPath, cfg.Assistant.APIKeyFile, key); err != nil {
		return err
	}
	path := cfg.Assistant.APIKeyFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(flags.ConfigPath, path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "API key saved to %s\n", path)
	return nil
}

// assistSession runs assistant turns against a workspace.
type assistSession struct {
	w         *workspace
	cmd       *cobra.Command
	assistant assistant.Assistant
	yes       bool
	confirm   func(question string) (bool, error)
}

// turn sends one request and applies the suggested changes once confirmed.
func (s *assistSession) turn(ctx context.Context, request string) error {
	stop := cli.StartSpinner(s.cmd.ErrOrStderr(), "Thinking...", s.w.flags.Quiet || s.w.printer.Structured())
	suggestion, err := s.assistant.Suggest(ctx, request, s.w.rec.All())
	stop()
	if err != nil {
		return fmt.Errorf("assistant request failed: %w", err)
	}

	s.w.printer.Message("%s", strings.TrimSpace(suggestion.Message))
	if len(suggestion.Changes) == 0 {
		return nil
	}

	cs, err := s.w.rec.ProposeFrom(reconciler.SourceAssistant, suggestion.Changes...)
	if err != nil {
		return fmt.Errorf("suggested changes rejected: %w", err)
	}
	if err := s.w.requireParsed(cs.Domains()...); err != nil {
		return err
	}
	if err := s.w.printer.ChangeSet(cs); err != nil {
		return err
	}

	if !s.yes {
		ok, err := s.confirm("Apply these changes? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			s.w.printer.Message("Changes not applied.")
			return nil
		}
	}

	err = s.w.rec.Apply(ctx, cs)
	if err := s.w.warnSession(s.cmd, err); err != nil {
		return explainApplyError(err)
	}
	s.w.printer.Message("Applied %d change(s).", cs.Len())
	s.w.saveStateOnExit()
	return nil
}

// repl runs turns read from the terminal until exit or EOF.
func (s *assistSession) repl(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          assistPrompt,
		HistoryFile:     filepath.Join(s.w.configPath, assistHistoryFile),
		AutoComplete:    readline.NewPrefixCompleter(readline.PcItem("reset"), readline.PcItem("help"), readline.PcItem("exit")),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          s.cmd.OutOrStdout(),
		Stderr:          s.cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	s.confirm = func(question string) (bool, error) {
		rl.SetPrompt(question)
		defer rl.SetPrompt(assistPrompt)
		line, err := rl.Readline()
		if err != nil && !errors.Is(err, readline.ErrInterrupt) && !errors.Is(err, io.EOF) {
			return false, err
		}
		return isYes(line), nil
	}

	fmt.Fprintln(s.cmd.OutOrStdout(), "Describe the settings you want. Type 'help' for commands.")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("readline error: %w", err)
		}

		switch input := strings.TrimSpace(line); input {
		case "":
		case "exit", "quit":
			return nil
		case "reset":
			s.assistant.Reset()
			fmt.Fprintln(s.cmd.OutOrStdout(), "Conversation cleared.")
		case "help", "?":
			fmt.Fprintln(s.cmd.OutOrStdout(), "Commands: reset (new conversation), exit. Anything else is sent to the assistant.")
		default:
			if err := s.turn(ctx, input); err != nil {
				fmt.Fprintf(s.cmd.ErrOrStderr(), "Error: %v\n", err)
			}
		}
	}
}

// confirmFrom asks on out and reads the answer from in.
func confirmFrom(in *bufio.Reader, out io.Writer) func(string) (bool, error) {
	return func(question string) (bool, error) {
		fmt.Fprint(out, question)
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		return isYes(line), nil
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
