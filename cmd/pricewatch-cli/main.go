package main

import (
	"context"

	"pricewatch/cmd/pricewatch-cli/commands"
	"pricewatch/internal/components/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "pricewatch-cli")
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}
