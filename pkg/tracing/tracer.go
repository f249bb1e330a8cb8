// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tracing wraps CLI operations in spans. The default build uses a
// no-op tracer; building with -tags=otel exports spans over OTLP/HTTP.
package tracing

import (
	"context"
	"sync"
)

// Span attribute keys recorded by the CLI.
const (
	AttrOperation  = "cicero.operation"
	AttrPath       = "cicero.path"
	AttrTemplate   = "cicero.template"
	AttrInstance   = "cicero.instance"
	AttrSignatory  = "cicero.signatory"
	AttrSignatures = "cicero.signatures"
	AttrStandalone = "cicero.standalone"
	AttrOutcome    = "cicero.outcome"
)

// Span is an in-flight unit of work.
type Span interface {
	SetAttribute(key string, value interface{})
	// RecordError marks the span as failed.
	RecordError(err error)
	End()
}

// Tracer starts spans.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

var (
	mu           sync.RWMutex
	globalTracer Tracer = NoopTracer{}
)

// SetTracer installs t as the process tracer. nil restores the no-op tracer.
func SetTracer(t Tracer) {
	mu.Lock()
	defer mu.Unlock()
	if t == nil {
		t = NoopTracer{}
	}
	globalTracer = t
}

// GetTracer returns the process tracer.
func GetTracer() Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return globalTracer
}

// Start starts a span on the process tracer.
func Start(ctx context.Context, name string) (context.Context, Span) {
	return GetTracer().Start(ctx, name)
}

// Enabled reports whether a real tracer is installed.
func Enabled() bool {
	_, noop := GetTracer().(NoopTracer)
	return !noop
}

// Run calls fn inside a span named name carrying attrs. The error returned
// by fn is recorded on the span and an outcome attribute is set.
func Run(ctx context.Context, name string, attrs map[string]interface{}, fn func(context.Context) error) error {
	if !Enabled() {
		return fn(ctx)
	}
	ctx, span := Start(ctx, name)
	defer span.End()
	for k, v := range attrs {
		span.SetAttribute(k, v)
	}
	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetAttribute(AttrOutcome, "failure")
	} else {
		span.SetAttribute(AttrOutcome, "success")
	}
	return err
}
