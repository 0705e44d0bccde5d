package main

// Build the Lambda handler binary (ship the engine executable alongside it):
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"stackbridge/internal/bootstrap"
	"stackbridge/internal/shared/config"
	"stackbridge/internal/shared/metrics"
	"stackbridge/internal/shared/telemetry"
)

var (
	initOnce  sync.Once
	initErr   error
	app       *bootstrap.App
	ginLambda *ginadapter.GinLambdaV2

	sweepMu   sync.Mutex
	lastSweep time.Time
)

func initApp(ctx context.Context) {
	cfg := config.Load()
	telemetry.Configure(os.Stdout, cfg.LogLevel)
	app, initErr = bootstrap.Build(ctx, cfg)
	if initErr != nil {
		return
	}
	ginLambda = ginadapter.NewV2(app.Router)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(func() { initApp(context.WithoutCancel(ctx)) })
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr.Error()})
		body, _ := json.Marshal(map[string]any{"error": map[string]string{"code": "bootstrap_failed", "message": "service unavailable"}})
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       string(body),
			Headers:    map[string]string{"Content-Type": "application/json"},
		}, nil
	}

	maybeSweep()
	return ginLambda.ProxyWithContext(ctx, req)
}

// maybeSweep removes stale payload files at most once per sweep interval.
// Background goroutines do not run while the execution environment is frozen.
func maybeSweep() {
	sweepMu.Lock()
	due := time.Since(lastSweep) >= app.Config.Payload.SweepInterval
	if due {
		lastSweep = time.Now()
	}
	sweepMu.Unlock()
	if !due {
		return
	}
	removed, err := app.Channel.Sweep(app.Config.Payload.SweepMaxAge)
	metrics.AddPayloadFilesSwept(removed)
	if err != nil {
		telemetry.Error("payload.sweep_failed", map[string]any{"dir": app.Channel.Dir(), "error": err.Error()})
	}
}

func main() {
	lambda.Start(handler)
}
