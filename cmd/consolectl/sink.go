package main

import (
	"context"

	"github.com/goliatone/go-users/pkg/types"
	"go.uber.org/zap"
)

// logSink records go-users activity records in the process log.
type logSink struct {
	logger *zap.Logger
}

func (s logSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.logger.Info("activity",
		zap.String("verb", record.Verb),
		zap.String("object_type", record.ObjectType),
		zap.String("object_id", record.ObjectID),
		zap.String("channel", record.Channel),
		zap.Stringer("actor_id", record.ActorID),
		zap.Any("data", record.Data),
	)
	return nil
}
