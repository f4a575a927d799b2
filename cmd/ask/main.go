// Command ask sends one question to the worker pool over NATS and prints the JSON answer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/config"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/queue/nats"
)

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "how long to wait for a reply")
	flag.Parse()

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "usage: ask [-timeout 2m] <question>")
		os.Exit(2)
	}

	if err := run(question, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "ask: %v\n", err)
		os.Exit(1)
	}
}

func run(question string, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return err
	}
	defer queue.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	answer, err := queue.Ask(ctx, question)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(answer)
}
