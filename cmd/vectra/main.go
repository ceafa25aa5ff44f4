// Command vectra is the CLI surface for the RAG orchestration engine: it
// loads a YAML configuration, wires the configured backends and vector
// store into an orchestrator.Engine, and runs either the ingestion or
// query pipeline against a single directory or question (§1 Non-goals:
// "a full CLI/TUI" is out of scope — this is the minimal peripheral entry
// point the spec's operations need to be driven from outside tests).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/docloader"
	llmbackendfactory "github.com/iamabhishek-n/vectra-go/pkg/llmbackend/factory"
	"github.com/iamabhishek-n/vectra-go/pkg/logging"
	"github.com/iamabhishek-n/vectra-go/pkg/orchestrator"
	vectragrpc "github.com/iamabhishek-n/vectra-go/pkg/transport/grpc"
	vectorstorefactory "github.com/iamabhishek-n/vectra-go/pkg/vectorstore/factory"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ingest":
		runIngest(os.Args[2:])
	case "query":
		runQuery(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: vectra ingest <path> [--config=vectra.yaml]")
	fmt.Fprintln(os.Stderr, "       vectra query <text> [--config=vectra.yaml] [--stream] [--session=id]")
	fmt.Fprintln(os.Stderr, "       vectra serve [--config=vectra.yaml] [--addr=:50051]")
}

func loadEngine(configPath string) (*orchestrator.Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	embed, err := llmbackendfactory.New(config.LLMConfig{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		APIKey:   cfg.Embedding.APIKey,
	}, cfg.Embedding.Model)
	if err != nil {
		return nil, fmt.Errorf("build embedding backend: %w", err)
	}
	generateBackend, err := llmbackendfactory.New(cfg.LLM, cfg.Embedding.Model)
	if err != nil {
		return nil, fmt.Errorf("build generation backend: %w", err)
	}

	store, err := vectorstorefactory.New(context.Background(), cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("build vector store: %w", err)
	}

	engine := orchestrator.New(*cfg, store, embed, generateBackend)
	engine.RewriteBackend = generateBackend
	engine.RerankBackend = generateBackend
	engine.Logger = logging.New(logging.NewZerologAdapter(log.Logger))

	if err := engine.ValidateCapabilities(); err != nil {
		return nil, fmt.Errorf("validate backend capabilities: %w", err)
	}
	return engine, nil
}

func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "vectra.yaml", "path to YAML configuration")
	fs.Parse(args)
	if fs.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	dir := fs.Arg(0)

	engine, err := loadEngine(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("vectra: failed to initialize")
	}
	engine.WithIngest(docloader.NewRegistry())

	summary, err := engine.RunIngest(context.Background(), dir)
	if err != nil {
		log.Fatal().Err(err).Msg("vectra: ingest failed")
	}

	log.Info().
		Int("processed", summary.Processed).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("ingest complete")
	for _, e := range summary.Errors {
		log.Error().Err(e).Msg("ingest: file error")
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", "vectra.yaml", "path to YAML configuration")
	stream := fs.Bool("stream", false, "stream the generation response")
	session := fs.String("session", "", "conversation session id for memory")
	fs.Parse(args)
	if fs.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	question := fs.Arg(0)

	engine, err := loadEngine(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("vectra: failed to initialize")
	}

	ctx := context.Background()
	req := orchestrator.QueryRequest{Question: question, SessionID: *session}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	if *stream {
		events, errc := engine.QueryStream(ctx, req)
		for ev := range events {
			if !ev.Done {
				fmt.Fprint(w, ev.Delta)
				w.Flush()
			}
		}
		if err := <-errc; err != nil {
			log.Fatal().Err(err).Msg("vectra: query failed")
		}
		fmt.Fprintln(w)
		return
	}

	resp, err := engine.RunQuery(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("vectra: query failed")
	}
	fmt.Fprintf(w, "%v\n", resp.Answer)
	for _, src := range resp.Sources {
		fmt.Fprintf(w, "  source: %v\n", src["docTitle"])
	}
}

// runServe hosts the optional gRPC façade over the orchestrator (§1;
// peripheral to the pipeline itself but the transport named in
// SPEC_FULL.md's DOMAIN STACK as "pkg/grpc and pkg/middleware/remote/grpc").
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "vectra.yaml", "path to YAML configuration")
	addr := fs.String("addr", ":50051", "address to listen on")
	fs.Parse(args)

	engine, err := loadEngine(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("vectra: failed to initialize")
	}
	engine.WithIngest(docloader.NewRegistry())

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *addr).Msg("vectra: failed to listen")
	}

	grpcServer := grpc.NewServer()
	vectragrpc.NewServer(grpcServer, engine)

	log.Info().Str("addr", *addr).Msg("vectra: serving orchestrator over grpc")
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatal().Err(err).Msg("vectra: grpc server stopped")
	}
}
