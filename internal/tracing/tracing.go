// Package tracing records OpenTelemetry spans around table operations.
package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// TracerName is the instrumentation name callers should pass to
// TracerProvider.Tracer.
const TracerName = "github.com/mesh-intelligence/entitykeys"

// Span attribute keys.
const (
	AttrTable        = attribute.Key("entitykeys.table")
	AttrPartitionKey = attribute.Key("entitykeys.partition_key")
	AttrRowKey       = attribute.Key("entitykeys.row_key")
	AttrCount        = attribute.Key("entitykeys.count")
	AttrFound        = attribute.Key("entitykeys.found")
)

type cupboard struct {
	types.Cupboard
	tracer trace.Tracer
}

// WrapCupboard returns a Cupboard whose tables are wrapped with WrapTable.
func WrapCupboard(c types.Cupboard, tracer trace.Tracer) types.Cupboard {
	return &cupboard{Cupboard: c, tracer: tracer}
}

func (c *cupboard) GetTable(name string) (types.Table, error) {
	t, err := c.Cupboard.GetTable(name)
	if err != nil {
		return nil, err
	}
	return WrapTable(name, t, c.tracer), nil
}

type table struct {
	name   string
	next   types.Table
	tracer trace.Tracer
}

// WrapTable returns a Table that starts one span per operation. Spans
// carry the table name and the rendered keys; failures are recorded as
// span errors, except ErrNotFound, which sets AttrFound to false.
func WrapTable(name string, t types.Table, tracer trace.Tracer) types.Table {
	return &table{name: name, next: t, tracer: tracer}
}

func (t *table) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "entitykeys."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrTable.String(t.name)))
}

func (t *table) Put(ctx context.Context, props types.Properties) (*types.Entity, error) {
	ctx, span := t.start(ctx, "put")
	defer span.End()
	e, err := t.next.Put(ctx, props)
	finish(span, e, err)
	return e, err
}

func (t *table) Get(ctx context.Context, props types.Properties) (*types.Entity, error) {
	ctx, span := t.start(ctx, "get")
	defer span.End()
	e, err := t.next.Get(ctx, props)
	finish(span, e, err)
	return e, err
}

func (t *table) Delete(ctx context.Context, props types.Properties) error {
	ctx, span := t.start(ctx, "delete")
	defer span.End()
	err := t.next.Delete(ctx, props)
	finish(span, nil, err)
	return err
}

func (t *table) List(ctx context.Context, props types.Properties) ([]*types.Entity, error) {
	ctx, span := t.start(ctx, "list")
	defer span.End()
	list, err := t.next.List(ctx, props)
	if len(list) > 0 {
		span.SetAttributes(AttrPartitionKey.String(list[0].PartitionKey))
	}
	span.SetAttributes(AttrCount.Int(len(list)))
	finish(span, nil, err)
	return list, err
}

func finish(span trace.Span, e *types.Entity, err error) {
	if e != nil {
		span.SetAttributes(
			AttrPartitionKey.String(e.PartitionKey),
			AttrRowKey.String(e.RowKey),
		)
	}
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, types.ErrNotFound):
		span.SetAttributes(AttrFound.Bool(false))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
