package main

import (
	"context"
	"log"

	"insightslm-be/internal/bootstrap"
	"insightslm-be/internal/config"
	"insightslm-be/internal/server"
	"insightslm-be/internal/tracer"
	"insightslm-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	ctx := context.Background()

	go func() {
		log.Println("Background: Starting push relay...")
		if err := container.PushService.Consume(ctx); err != nil {
			log.Printf("Background push relay error: %v", err)
		}
	}()

	sub, err := container.SyncStore.Subscribe(ctx)
	if err != nil {
		log.Printf("Sync store subscription error: %v", err)
	} else {
		defer sub.Close()
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
