package factory

import (
	"context"
	"testing"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/config"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/kv"
)

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	b, err := NewBackend(ctx, config.StoreConfig{Driver: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*kv.Memory); !ok {
		t.Errorf("memory driver returned %T", b)
	}

	b, err = NewBackend(ctx, config.StoreConfig{Driver: "file", Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*kv.File); !ok {
		t.Errorf("file driver returned %T", b)
	}

	for _, cfg := range []config.StoreConfig{
		{Driver: "postgres"},
		{Driver: "redis"},
		{Driver: "mongo"},
		{Driver: "etcd"},
	} {
		if _, err := NewBackend(ctx, cfg); err == nil {
			t.Errorf("NewBackend(%q) should fail without connection settings", cfg.Driver)
		}
	}
}
