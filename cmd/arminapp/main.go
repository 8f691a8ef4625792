// Command arminapp is a terminal front-end for the chat session manager.
// Lines typed at the prompt become text exchanges; slash commands manage
// sessions and file analysis.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Horizontal-Labs/ArminApp/internal/analysis"
	"github.com/Horizontal-Labs/ArminApp/internal/domain/chat"
	"github.com/Horizontal-Labs/ArminApp/internal/infrastructure/config"
	"github.com/Horizontal-Labs/ArminApp/internal/infrastructure/logging"
	"github.com/Horizontal-Labs/ArminApp/internal/infrastructure/monitoring"
	"github.com/Horizontal-Labs/ArminApp/internal/persistence"
	"github.com/Horizontal-Labs/ArminApp/internal/shared/format"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	store, err := persistence.Open(cfg.Storage.Path, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	client := analysis.New(analysis.Config{
		BaseURL: cfg.Analysis.BaseURL,
		Timeout: time.Duration(cfg.Analysis.TimeoutSeconds) * time.Second,
	})
	if cfg.Analysis.RequestsPerSecond > 0 {
		client.SetRateLimit(cfg.Analysis.RequestsPerSecond)
	}

	manager := chat.NewManager(
		chat.NewStore(store, logger),
		client,
		logger,
		chat.WithMetrics(monitoring.NewMetrics(prometheus.NewRegistry())),
		chat.WithMode(cfg.Analysis.Mode),
	)
	manager.LoadPersistedData()

	logger.Info("arminapp ready",
		zap.String("base_url", cfg.Analysis.BaseURL),
		zap.Int("sessions", len(manager.Sessions())),
	)

	repl(manager)
}

func repl(m *chat.Manager) {
	fmt.Println("ArminApp — type a message, /help for commands, /quit to exit")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/help":
			printHelp()
		case line == "/new":
			m.StartNewChat()
			fmt.Println("started a new chat")
		case line == "/list":
			printSessions(m)
		case strings.HasPrefix(line, "/select "):
			withSession(m, strings.TrimPrefix(line, "/select "), func(s chat.Session) {
				m.SelectChat(s.ID)
				printMessages(m)
			})
		case strings.HasPrefix(line, "/delete "):
			withSession(m, strings.TrimPrefix(line, "/delete "), func(s chat.Session) {
				m.DeleteChat(s.ID)
				fmt.Printf("deleted %q\n", s.Title)
			})
		case strings.HasPrefix(line, "/file "):
			path, extra := splitFileArgs(strings.TrimPrefix(line, "/file "))
			send(m, extra, path)
		case strings.HasPrefix(line, "/"):
			fmt.Println("unknown command, try /help")
		default:
			send(m, line, "")
		}
	}
}

func send(m *chat.Manager, text, file string) {
	if err := m.SendMessage(context.Background(), text, file); err != nil {
		fmt.Println("error:", m.LastError())
		return
	}
	msgs := m.CurrentMessages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Result.Failed() {
		fmt.Println(last.Result.Error)
		return
	}
	fmt.Printf("[%s] %s\n", format.MessageTime(last.Timestamp), string(last.Result.Analysis))
}

func printSessions(m *chat.Manager) {
	sessions := m.Sessions()
	if len(sessions) == 0 {
		fmt.Println("no sessions yet")
		return
	}
	now := time.Now()
	current, _ := m.CurrentSessionID()
	for i, s := range sessions {
		marker := " "
		if s.ID == current {
			marker = "*"
		}
		fmt.Printf("%s %2d. %-53s %s\n", marker, i+1, s.Title, format.SessionDate(s.CreatedAt, now))
	}
}

func printMessages(m *chat.Manager) {
	for _, msg := range m.CurrentMessages() {
		switch msg.Role {
		case chat.RoleUser:
			text := msg.Text
			if msg.Attachment != nil {
				text = fmt.Sprintf("%s [%s, %s]", text, msg.Attachment.Name,
					format.AttachmentSize(msg.Attachment.SizeBytes))
			}
			fmt.Printf("[%s] you: %s\n", format.MessageTime(msg.Timestamp), strings.TrimSpace(text))
		case chat.RoleAssistant:
			switch {
			case msg.Pending:
				fmt.Printf("[%s] assistant: ...\n", format.MessageTime(msg.Timestamp))
			case msg.Result.Failed():
				fmt.Printf("[%s] assistant: %s\n", format.MessageTime(msg.Timestamp), msg.Result.Error)
			default:
				fmt.Printf("[%s] assistant: %s\n", format.MessageTime(msg.Timestamp), string(msg.Result.Analysis))
			}
		}
	}
}

// withSession resolves a 1-based index from /list and runs fn on the match.
func withSession(m *chat.Manager, arg string, fn func(chat.Session)) {
	idx, err := strconv.Atoi(strings.TrimSpace(arg))
	sessions := m.Sessions()
	if err != nil || idx < 1 || idx > len(sessions) {
		fmt.Println("usage: /select|/delete <number from /list>")
		return
	}
	fn(sessions[idx-1])
}

// splitFileArgs separates "/file <path> [text]" into path and optional text.
// Quote the path when it contains spaces.
func splitFileArgs(args string) (path, text string) {
	args = strings.TrimSpace(args)
	if strings.HasPrefix(args, `"`) {
		if end := strings.Index(args[1:], `"`); end != -1 {
			return args[1 : end+1], strings.TrimSpace(args[end+2:])
		}
	}
	if i := strings.IndexByte(args, ' '); i != -1 {
		return args[:i], strings.TrimSpace(args[i+1:])
	}
	return args, ""
}

func printHelp() {
	fmt.Println(`  <text>              send a text exchange
  /file <path> [text] send a file exchange, with optional extra text
  /new                start a new chat
  /list               list sessions, newest first
  /select <n>         switch to session n and show its messages
  /delete <n>         delete session n
  /quit               exit`)
}
