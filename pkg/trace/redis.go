package trace

import (
	"context"
	"net"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const redisTracerName = "github.com/go-arcade/sniper/pkg/trace/redis"

// RedisHook 为每条 redis 命令创建客户端 span
type RedisHook struct{}

var _ redis.Hook = RedisHook{}

func (RedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (RedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := otel.Tracer(redisTracerName).Start(ctx, "redis."+cmd.Name(),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", "redis"),
				attribute.String("db.operation", cmd.Name()),
			))
		defer span.End()

		err := next(ctx, cmd)
		recordRedisError(span, err)
		return err
	}
}

func (RedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := otel.Tracer(redisTracerName).Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", "redis"),
				attribute.Int("db.redis.num_cmd", len(cmds)),
			))
		defer span.End()

		err := next(ctx, cmds)
		recordRedisError(span, err)
		return err
	}
}

// redis.Nil 是缓存未命中，不算错误
func recordRedisError(span trace.Span, err error) {
	if err == nil || err == redis.Nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
