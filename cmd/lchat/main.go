package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lchat/internal/app"
	"lchat/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
	repoURL = "https://github.com/jaivial/lchat"
)

var (
	exportFormat string
	exportOut    string
)

func applyEnvOverrides(cfg *app.Config) {
	if v := strings.TrimSpace(os.Getenv("LCHAT_SERVER_URL")); v != "" {
		cfg.ServerBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LCHAT_MODEL")); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("LCHAT_STORAGE_PATH")); v != "" {
		cfg.StoragePath = v
	}
}

func openStore() (*app.ChatStore, app.Config, error) {
	cfg, err := app.LoadConfig(app.DefaultConfigPath())
	if err != nil {
		return nil, cfg, err
	}
	applyEnvOverrides(&cfg)
	backend, err := cfg.OpenBackend()
	if err != nil {
		return nil, cfg, err
	}
	return app.NewChatStore(backend), cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)

	logger = app.NewLogger(nil)
)

func printSummaries(summaries []app.ChatSummary, folders []app.Folder) {
	names := map[string]string{}
	for _, f := range folders {
		names[f.ID] = f.Name
	}
	for _, s := range summaries {
		title := headerStyle.Render(s.Title)
		if s.FolderID != nil {
			if name, ok := names[*s.FolderID]; ok {
				title = mutedStyle.Render(name+"/") + title
			}
		}
		updated := time.UnixMilli(s.UpdatedAt).Format("2006-01-02 15:04")
		fmt.Printf("%s\n  %s\n", title, mutedStyle.Render(fmt.Sprintf("%s · %d messages · %s", updated, s.MessageCount, s.ID)))
		if s.Snippet != "" {
			fmt.Printf("  %s\n", mutedStyle.Render(s.Snippet))
		}
	}
	if len(summaries) == 0 {
		fmt.Println(mutedStyle.Render("no chats"))
	}
}

func runExport(ctx context.Context, store *app.ChatStore, cfg app.Config) error {
	st, err := store.GetState(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	out := exportOut
	if out == "" {
		out = cfg.ExportDir
	}

	switch exportFormat {
	case "json":
		blob, err := app.ExportJSON(st, now)
		if err != nil {
			return err
		}
		err = deliver(out, "lchat-export.json", string(blob))
		logExport(err, "json", out, len(st.Chats))
		return err
	case "jsonl":
		blob, err := app.ExportJSONL(st, now)
		if err != nil {
			return err
		}
		err = deliver(out, "lchat-export.jsonl", string(blob))
		logExport(err, "jsonl", out, len(st.Chats))
		return err
	case "md":
		if out != "" {
			sink, err := app.NewDirectorySink(out)
			if err != nil {
				return err
			}
			err = app.ExportChatsToSink(sink, st, now)
			logExport(err, "md", out, len(st.Chats))
			return err
		}
		err = deliver(out, "lchat-export.md", app.ExportAllMarkdown(st))
		logExport(err, "md", out, len(st.Chats))
		return err
	default:
		return fmt.Errorf("unsupported export format %q (json|jsonl|md)", exportFormat)
	}
}

func logExport(err error, format, out string, chats int) {
	if out == "" {
		out = "stdout"
	}
	fields := map[string]any{"format": format, "out": out, "chats": chats}
	if err != nil {
		fields["error"] = err.Error()
		logger.Error("export failed", fields)
		return
	}
	logger.Info("export complete", fields)
}

// deliver writes one export document into dir, or to stdout when no
// directory was chosen.
func deliver(dir, filename, content string) error {
	if dir == "" {
		_, err := fmt.Print(content)
		return err
	}
	sink, err := app.NewDirectorySink(dir)
	if err != nil {
		return err
	}
	return sink.WriteFile(filename, content)
}

func main() {
	root := &cobra.Command{
		Use:     "lchat",
		Short:   "lchat - chat with a local model, history kept locally",
		Long:    "lchat is a terminal companion for a locally running language-model server.\nConversations are organized into folders and persisted on this machine only.\n\nRun without arguments for the interactive TUI, or use the subcommands to\ninspect and export history.\n\nFor more information, visit: " + repoURL,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStore()
			if err != nil {
				return err
			}
			client := app.NewLocalClient(cfg.ServerBaseURL, cfg.Model, cfg.MaxTokens)
			p := tea.NewProgram(tui.New(store, client, cfg.Model), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List chats by recency",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			store, _, err := openStore()
			if err != nil {
				return err
			}
			st, err := store.GetState(ctx)
			if err != nil {
				return err
			}
			printSummaries(app.ChatSummaries(st), app.SortedFolders(st))
			return nil
		},
	}
	root.AddCommand(listCmd)

	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search chat titles and message text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			store, _, err := openStore()
			if err != nil {
				return err
			}
			st, err := store.GetState(ctx)
			if err != nil {
				return err
			}
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			printSummaries(app.SearchChats(st, query), app.SortedFolders(st))
			return nil
		},
	}
	root.AddCommand(searchCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export history as json, jsonl or markdown",
		Long:  "Export the full conversation history.\n\nExamples:\n  - lchat export --format json > backup.json\n  - lchat export --format jsonl --out ~/backups\n  - lchat export --format md --out ~/notes/chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			store, cfg, err := openStore()
			if err != nil {
				return err
			}
			return runExport(ctx, store, cfg)
		},
	}
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format: json|jsonl|md")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output directory (stdout when omitted)")
	root.AddCommand(exportCmd)

	rmCmd := &cobra.Command{
		Use:   "rm [chatID]",
		Short: "Delete a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			store, _, err := openStore()
			if err != nil {
				return err
			}
			if _, err := store.DeleteChat(ctx, args[0]); err != nil {
				return err
			}
			logger.Info("chat deleted", map[string]any{"chatId": args[0]})
			fmt.Println("deleted", args[0])
			return nil
		},
	}
	root.AddCommand(rmCmd)

	folderCmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage folders",
	}
	folderCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			store, _, err := openStore()
			if err != nil {
				return err
			}
			st, err := store.GetState(ctx)
			if err != nil {
				return err
			}
			for _, f := range app.SortedFolders(st) {
				count := 0
				for _, c := range st.Chats {
					if c.FolderID != nil && *c.FolderID == f.ID {
						count++
					}
				}
				fmt.Printf("%s\n  %s\n", headerStyle.Render(f.Name), mutedStyle.Render(fmt.Sprintf("%d chats · %s", count, f.ID)))
			}
			return nil
		},
	})
	folderCmd.AddCommand(&cobra.Command{
		Use:   "add [name]",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			store, _, err := openStore()
			if err != nil {
				return err
			}
			_, id, err := store.CreateFolder(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println("created", id)
			return nil
		},
	})
	folderCmd.AddCommand(&cobra.Command{
		Use:   "rename [folderID] [name]",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			store, _, err := openStore()
			if err != nil {
				return err
			}
			_, err = store.RenameFolder(ctx, args[0], args[1])
			return err
		},
	})
	folderCmd.AddCommand(&cobra.Command{
		Use:   "rm [folderID]",
		Short: "Delete a folder (its chats move to the inbox)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			store, _, err := openStore()
			if err != nil {
				return err
			}
			_, err = store.DeleteFolder(ctx, args[0])
			return err
		},
	})
	root.AddCommand(folderCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
