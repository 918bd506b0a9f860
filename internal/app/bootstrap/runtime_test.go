package bootstrap

import (
	"context"
	"testing"
)

func TestNewRuntimeBootsWithoutExternalDependencies(t *testing.T) {
	// Port 0 takes an ephemeral gRPC listener so parallel test runs never
	// collide. With no postgres/redis/kafka configured the runtime falls back
	// to the in-process adapters. A duplicated gRPC service registration
	// aborts inside NewRuntime, so simply constructing the runtime pins the
	// single health registration.
	t.Setenv("GRPC_PORT", "0")

	rt, err := NewRuntime(context.Background(), "no-such-config.yaml")
	if err != nil {
		t.Fatalf("NewRuntime err: %v", err)
	}
	defer func() {
		_ = rt.grpcLis.Close()
		rt.cleanupFn(context.Background())
	}()

	if rt.httpServer == nil || rt.grpcServer == nil {
		t.Fatal("runtime missing http or grpc server")
	}
	if rt.outbox == nil || rt.clickWorker == nil {
		t.Fatal("runtime missing background workers")
	}
}
