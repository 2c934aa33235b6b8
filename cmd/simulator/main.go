package main

import (
	"context"
	"log"

	"ai-tutoring-sync/internal/bootstrap"
	"ai-tutoring-sync/internal/config"
	"ai-tutoring-sync/internal/server"
	"ai-tutoring-sync/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Shutdown()

	// 3. Initialize Server
	srv := server.New(cfg, container)

	// 4. Run Server
	log.Fatal(srv.Run())
}
