// Command chat is a terminal consumer of the retrieval core: each
// question is grounded in the top-k retrieved passages and answered by
// the configured provider as a token stream.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/anybrain-ai/anybrain/internal/app"
	"github.com/anybrain-ai/anybrain/internal/config"
	"github.com/anybrain-ai/anybrain/internal/core/llm"
	"github.com/anybrain-ai/anybrain/internal/core/retrieval"
	"github.com/anybrain-ai/anybrain/internal/session"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	sess, err := application.Settings.NewSession()
	if errors.Is(err, session.ErrNoAPIKey) {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "falling back to the keyless local provider")
		sess, err = application.Settings.KeylessSession()
	}
	if err != nil {
		return err
	}

	fmt.Printf("AnyBrain ready. Provider: %s, model: %s\n", sess.Provider.Kind, sess.Provider.Model)
	fmt.Println("Type a question, /provider <name> to switch provider, /quit to exit.")

	sc := bufio.NewScanner(os.Stdin)
	for ctx.Err() == nil {
		fmt.Print("> ")
		if !sc.Scan() {
			return sc.Err()
		}
		question := strings.TrimSpace(sc.Text())
		if question == "" {
			continue
		}
		if question == "/quit" || question == "/exit" {
			return nil
		}
		if name, ok := strings.CutPrefix(question, "/provider "); ok {
			switchProvider(cfg, sess, strings.TrimSpace(name))
			continue
		}

		passages := application.Retriever.Retrieve(ctx, question, cfg.TopK)
		prompt := retrieval.BuildPrompt(retrieval.BuildContext(passages), question)

		answer, err := streamAnswer(ctx, sess, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil // interrupted
			}
			fmt.Fprintln(os.Stderr, "\nerror:", err)
			continue
		}
		sess.Remember(question, answer)
	}
	return nil
}

// switchProvider reselects the variant for this session and persists it
// as the new default, keeping history and system prompt intact.
func switchProvider(cfg *config.Config, sess *session.Session, name string) {
	kind, err := llm.ParseProviderKind(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}
	if err := sess.SwitchProvider(kind, ""); err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			fmt.Fprintf(os.Stderr, "no key for %s: set %q in %s\n", kind, kind.SettingsKey(), cfg.SettingsPath)
			return
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}
	fmt.Printf("Provider: %s, model: %s\n", sess.Provider.Kind, sess.Provider.Model)
}

// streamAnswer pulls tokens and prints them as they arrive. An interrupt
// closes the stream promptly instead of draining it.
func streamAnswer(ctx context.Context, sess *session.Session, prompt string) (string, error) {
	stream, err := sess.Provider.ChatStream(ctx, sess.Messages(prompt))
	if err != nil {
		return "", err
	}
	defer stream.Close()

	streamCtx, stop := context.WithCancel(ctx)
	defer stop()

	var full strings.Builder
	var g errgroup.Group

	g.Go(func() error {
		// Unblocks a pending Next either on interrupt or when the
		// printer finishes.
		<-streamCtx.Done()
		return stream.Close()
	})
	g.Go(func() error {
		defer stop()
		defer fmt.Println()
		for {
			token, err := stream.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Print(token)
			full.WriteString(token)
		}
	})

	if err := g.Wait(); err != nil {
		return "", err
	}
	return full.String(), nil
}
