package main

import (
	"context"

	"trolley-backend/cmd/trolley-cli/commands"
	"trolley-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "trolley-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
