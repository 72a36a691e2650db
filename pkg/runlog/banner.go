package runlog

import (
	"context"
	"log/slog"
	"strings"
)

var rule = strings.Repeat("-", 81)

// Banner logs [title] framed by two rules at LevelStage.
func Banner(ctx context.Context, logger *slog.Logger, title string) {
	Heading(ctx, logger, "["+title+"]")
}

// Heading logs heading framed by two rules at LevelStage.
func Heading(ctx context.Context, logger *slog.Logger, heading string) {
	logger.Log(ctx, LevelStage, rule)
	logger.Log(ctx, LevelStage, heading)
	logger.Log(ctx, LevelStage, rule)
}

// Blank logs an empty separator line.
func Blank(ctx context.Context, logger *slog.Logger) {
	logger.InfoContext(ctx, "")
}
