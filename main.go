package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/gofocus/internal/app"
)

const shutdownTimeout = 15 * time.Second

func main() {
	gofocus := app.New()
	<-gofocus.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	gofocus.Stop(ctx)
}
